package models

// Webhook event discriminator values sent by the messaging gateway in the
// "wook" field.
const (
	EventQRCode         = "QRCODE"
	EventStatusConnect  = "STATUS_CONNECT"
	EventSendMessage    = "SEND_MESSAGE"
	EventReceiveMessage = "RECEIVE_MESSAGE"
)

// WebhookEnvelope carries only the discriminator; the full payload is
// decoded a second time into the event-specific type once routed. The
// pointer distinguishes a missing discriminator (rejected outright) from
// an unrecognized value (dumped to the unknown-event sink).
type WebhookEnvelope struct {
	Wook *string `json:"wook"`
}

// QRCodeEvent is emitted while the gateway is waiting for a QR code scan.
// All seven payload fields are required; pointers preserve the distinction
// between absent and zero-valued fields.
type QRCodeEvent struct {
	Attempts *int    `json:"attempts"`
	Result   *string `json:"result"`
	Session  *string `json:"session"`
	State    *string `json:"state"`
	Status   *string `json:"status"`
	QRCode   *string `json:"qrcode"`
	URLCode  *string `json:"urlCode"`
}

// Complete reports whether every required field was present in the payload.
func (e *QRCodeEvent) Complete() bool {
	return e.Attempts != nil && e.Result != nil && e.Session != nil &&
		e.State != nil && e.Status != nil && e.QRCode != nil && e.URLCode != nil
}

// ConnectionStatusEvent reports a session lifecycle transition.
type ConnectionStatusEvent struct {
	Session string `json:"session"`
	State   string `json:"state"`
}

// MessageSender is the nested sender block of a message event.
type MessageSender struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	PushName     string `json:"pushname"`
	VerifiedName string `json:"verifiedName"`
	Type         string `json:"type"`
	IsBusiness   bool   `json:"isBusiness"`
	IsEnterprise bool   `json:"isEnterprise"`
	IsSmb        bool   `json:"isSmb"`
}

// MessageMediaData is the nested media metadata block. The fields are
// opaque pass-through values the gateway attaches to media messages.
type MessageMediaData struct {
	Type                   string `json:"type"`
	MediaStage             string `json:"mediaStage"`
	AnimationDuration      int    `json:"animationDuration"`
	AnimatedAsNewMsg       bool   `json:"animatedAsNewMsg"`
	IsViewOnce             bool   `json:"isViewOnce"`
	SwStreamingSupported   bool   `json:"_swStreamingSupported"`
	ListeningToSwSupport   bool   `json:"_listeningToSwSupport"`
	IsVcardOverMmsDocument bool   `json:"isVcardOverMmsDocument"`
}

// MessageEventData is the nested data block of a message event.
type MessageEventData struct {
	DeprecatedMms3URL string           `json:"deprecatedMms3Url"`
	DirectPath        string           `json:"directPath"`
	Filehash          string           `json:"filehash"`
	EncFilehash       string           `json:"encFilehash"`
	MediaKey          string           `json:"mediaKey"`
	MediaKeyTimestamp int64            `json:"mediaKeyTimestamp"`
	ChatID            string           `json:"chatId"`
	T                 int64            `json:"t"`
	Sender            MessageSender    `json:"sender"`
	MediaData         MessageMediaData `json:"mediaData"`
}

// MessageEvent is a SEND_MESSAGE or RECEIVE_MESSAGE payload. Both
// directions carry the same shape and are ingested identically.
type MessageEvent struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	MimeType    string           `json:"mimetype"`
	IsGroupMsg  bool             `json:"isGroupMsg"`
	FromMe      bool             `json:"fromMe"`
	Session     string           `json:"session"`
	Status      string           `json:"status"`
	To          string           `json:"to"`
	From        string           `json:"from"`
	Timestamp   int64            `json:"timestamp"`
	Datetime    string           `json:"datetime"`
	Caption     string           `json:"caption"`
	Base64      string           `json:"base64"`
	Content     string           `json:"content"`
	URL         string           `json:"url"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	QuotedMsg   string           `json:"quotedMsg"`
	QuotedMsgID string           `json:"quotedMsgId"`
	Data        MessageEventData `json:"data"`
}
