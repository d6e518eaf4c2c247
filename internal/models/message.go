package models

import "time"

// Message is the canonical flattened record the ingestor persists for one
// group chat event. The media metadata columns are opaque pass-through
// values kept for forensic completeness; the matcher only reads Session,
// ChatID, SenderID, Content, URLTitle and URLDescription.
type Message struct {
	ID          int64  `db:"id"`
	EventID     string `db:"event_id"`
	Type        string `db:"type"`
	MimeType    string `db:"mimetype"`
	IsGroupMsg  bool   `db:"is_group_msg"`
	FromMe      bool   `db:"from_me"`
	Session     string `db:"session"`
	Status      string `db:"status"`
	To          string `db:"recipient"`
	From        string `db:"sender"`
	Timestamp   int64  `db:"timestamp"`
	Datetime    string `db:"datetime"`
	Caption     string `db:"caption"`
	Base64      string `db:"base64"`
	Content     string `db:"content"`
	URLTitle    string `db:"url_title"`
	URLDesc     string `db:"url_description"`
	QuotedMsg   string `db:"quoted_msg"`
	QuotedMsgID string `db:"quoted_msg_id"`

	DeprecatedMms3URL string `db:"data_deprecated_mms3_url"`
	DirectPath        string `db:"data_direct_path"`
	Filehash          string `db:"data_filehash"`
	EncFilehash       string `db:"data_enc_filehash"`
	MediaKey          string `db:"data_media_key"`
	MediaKeyTimestamp int64  `db:"data_media_key_timestamp"`
	ChatID            string `db:"data_chat_id"`

	SenderID           string `db:"sender_id"`
	SenderName         string `db:"sender_name"`
	SenderShortName    string `db:"sender_short_name"`
	SenderPushName     string `db:"sender_pushname"`
	SenderVerifiedName string `db:"sender_verified_name"`
	SenderType         string `db:"sender_type"`
	SenderIsBusiness   bool   `db:"sender_is_business"`
	SenderIsEnterprise bool   `db:"sender_is_enterprise"`
	SenderIsSmb        bool   `db:"sender_is_smb"`

	MediaType              string `db:"media_type"`
	MediaStage             string `db:"media_stage"`
	AnimationDuration      int    `db:"media_animation_duration"`
	AnimatedAsNewMsg       bool   `db:"media_animated_as_new_msg"`
	IsViewOnce             bool   `db:"media_is_view_once"`
	SwStreamingSupported   bool   `db:"media_sw_streaming_supported"`
	ListeningToSwSupport   bool   `db:"media_listening_to_sw_support"`
	IsVcardOverMmsDocument bool   `db:"media_is_vcard_over_mms_document"`

	Processed bool      `db:"processed"`
	ClaimID   *string   `db:"claim_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Instance is one messaging-gateway session, keyed by
// "{clientID}-{phoneNumber}". Rows are created by the administrative
// layer; this service only updates the connection flags.
type Instance struct {
	ID             int64     `db:"id"`
	ClientID       int64     `db:"client_id"`
	SessionKey     string    `db:"session_key"`
	PhoneConnected bool      `db:"phone_connected"`
	WaitingQRCode  bool      `db:"waiting_qrcode"`
	QRReadError    bool      `db:"qr_read_error"`
	VerifiedAt     time.Time `db:"verified_at"`
}

// QREvent is one stored QR-code webhook delivery.
type QREvent struct {
	ID        int64     `db:"id"`
	Attempts  int       `db:"attempts"`
	Result    string    `db:"result"`
	Session   string    `db:"session"`
	State     string    `db:"state"`
	Status    string    `db:"status"`
	QRCode    string    `db:"qrcode"`
	URLCode   string    `db:"url_code"`
	CreatedAt time.Time `db:"created_at"`
}

// MonitoredGroup is a chat group under surveillance for one client and
// session. Rows are managed by the administrative layer and only read here.
type MonitoredGroup struct {
	ID              int64  `db:"id"`
	InstanceID      int64  `db:"instance_id"`
	ClientID        int64  `db:"client_id"`
	InvestigationID int64  `db:"investigation_id"`
	Session         string `db:"session"`
	GroupID         string `db:"group_id"`
	Active          bool   `db:"active"`
}

// MonitoredItem is one rule under a MonitoredGroup. IsMember selects the
// rule kind: membership rules compare Value against the sender identity,
// content rules compare it against message text and embedded links.
type MonitoredItem struct {
	ID               int64  `db:"id"`
	MonitoredGroupID int64  `db:"monitored_group_id"`
	ClientID         int64  `db:"client_id"`
	IsMember         bool   `db:"is_member"`
	Value            string `db:"value"`
	Active           bool   `db:"active"`
}

// Alert records one rule matching one message. Alerts are immutable and
// never deduplicated across matcher runs.
type Alert struct {
	ID               int64     `db:"id"`
	ClientID         int64     `db:"client_id"`
	InstanceID       int64     `db:"instance_id"`
	MonitoredGroupID int64     `db:"monitored_group_id"`
	MonitoredItemID  int64     `db:"monitored_item_id"`
	MessageID        int64     `db:"message_id"`
	CreatedAt        time.Time `db:"created_at"`
}
