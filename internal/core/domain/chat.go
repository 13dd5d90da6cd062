package domain

import (
	"encoding/json"
	"time"
)

// AttachmentTTL is how long a chat file stays downloadable before reads
// project it as expired.
const AttachmentTTL = 3 * 24 * time.Hour

// ExpiredFileText replaces the text of an attachment message whose file has
// expired. The stored record keeps the original attachment.
const ExpiredFileText = "Archivo caducado"

// Chat is a persistent two-party conversation. The unordered participant
// pair (User1ID, User2ID) identifies it; Room is its unique key.
type Chat struct {
	ID        int64     `json:"id"`
	Room      string    `json:"numRoom"`
	User1ID   UserID    `json:"user1_id"`
	User2ID   UserID    `json:"user2_id"`
	Messages  []Message `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// HasParticipant reports whether the user is either side of the chat.
func (c *Chat) HasParticipant(id UserID) bool {
	return c.User1ID == id || c.User2ID == id
}

// Attachment carries the file fields of an attachment message. StorageKey
// is server-internal and never broadcast.
type Attachment struct {
	FileURL    string
	FileName   string
	MimeType   string
	StorageKey string
	UploadedAt time.Time
}

// Message is one chat history entry: plain text, or text plus an
// attachment. The wire/storage form is a flat JSON object compatible with
// the records older deployments wrote.
type Message struct {
	Usuario    string
	Texto      string
	Attachment *Attachment
}

type messageJSON struct {
	Usuario       string  `json:"usuario"`
	Texto         string  `json:"texto"`
	Archivo       *string `json:"archivo,omitempty"`
	NombreArchivo string  `json:"nombreArchivo,omitempty"`
	TipoArchivo   string  `json:"tipoArchivo,omitempty"`
	S3Key         string  `json:"s3Key,omitempty"`
	FechaSubida   string  `json:"fechaSubida,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	out := messageJSON{Usuario: m.Usuario, Texto: m.Texto}
	if m.Attachment != nil {
		url := m.Attachment.FileURL
		out.Archivo = &url
		out.NombreArchivo = m.Attachment.FileName
		out.TipoArchivo = m.Attachment.MimeType
		out.S3Key = m.Attachment.StorageKey
		if !m.Attachment.UploadedAt.IsZero() {
			out.FechaSubida = m.Attachment.UploadedAt.UTC().Format(time.RFC3339)
		}
	}
	return json.Marshal(out)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var in messageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.Usuario = in.Usuario
	m.Texto = in.Texto
	m.Attachment = nil
	if in.Archivo != nil && *in.Archivo != "" {
		at := &Attachment{
			FileURL:    *in.Archivo,
			FileName:   in.NombreArchivo,
			MimeType:   in.TipoArchivo,
			StorageKey: in.S3Key,
		}
		if in.FechaSubida != "" {
			if ts, err := time.Parse(time.RFC3339, in.FechaSubida); err == nil {
				at.UploadedAt = ts
			}
		}
		m.Attachment = at
	}
	return nil
}

// Projected returns the read-time view of the message: an attachment older
// than AttachmentTTL is presented as an expired placeholder. The receiver
// is never mutated.
func (m Message) Projected(now time.Time) Message {
	if m.Attachment == nil || m.Attachment.UploadedAt.IsZero() {
		return m
	}
	if now.Sub(m.Attachment.UploadedAt) > AttachmentTTL {
		return Message{Usuario: m.Usuario, Texto: ExpiredFileText}
	}
	return m
}
