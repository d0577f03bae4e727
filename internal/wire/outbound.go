package wire

// Attachment 是随用户消息上报的附件元数据。
type Attachment struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// Ingest 是 ingest_message 的 data 部分；attachments 为空时省略。
type Ingest struct {
	Content     string       `json:"content"`
	SessionID   string       `json:"session_id"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Outbound 是客户端发出的信封。
type Outbound struct {
	Event EventKind `json:"event"`
	Data  Ingest    `json:"data"`
}

// NewIngest 构造启动一个 turn 的出站信封。
func NewIngest(sessionID, content string, attachments []Attachment) Outbound {
	in := Ingest{Content: content, SessionID: sessionID}
	if len(attachments) > 0 {
		in.Attachments = append([]Attachment(nil), attachments...)
	}
	return Outbound{Event: EventIngestMessage, Data: in}
}
