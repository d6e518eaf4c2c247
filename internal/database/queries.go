package database

// Message queries
const (
	insertMessageQuery = `
		INSERT INTO messages (
			event_id, type, mimetype, is_group_msg, from_me, session, status,
			recipient, sender, timestamp, datetime, caption, base64, content,
			url_title, url_description, quoted_msg, quoted_msg_id,
			data_deprecated_mms3_url, data_direct_path, data_filehash,
			data_enc_filehash, data_media_key, data_media_key_timestamp,
			data_chat_id, sender_id, sender_name, sender_short_name,
			sender_pushname, sender_verified_name, sender_type,
			sender_is_business, sender_is_enterprise, sender_is_smb,
			media_type, media_stage, media_animation_duration,
			media_animated_as_new_msg, media_is_view_once,
			media_sw_streaming_supported, media_listening_to_sw_support,
			media_is_vcard_over_mms_document
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	claimMessagesQuery = `
		UPDATE messages
		SET claim_id = ?
		WHERE processed = 0 AND claim_id IS NULL AND id IN (
			SELECT id FROM messages
			WHERE processed = 0 AND claim_id IS NULL
			ORDER BY id
			LIMIT ?
		)
	`

	selectClaimedMessagesQuery = `
		SELECT id, session, data_chat_id, sender_id, content,
		       url_title, url_description
		FROM messages
		WHERE claim_id = ? AND processed = 0
		ORDER BY id
	`

	markMessageProcessedQuery = `
		UPDATE messages SET processed = 1, claim_id = NULL WHERE id = ?
	`

	releaseClaimQuery = `
		UPDATE messages SET claim_id = NULL WHERE claim_id = ? AND processed = 0
	`

	selectMessageHistoryBaseQuery = `
		SELECT id, event_id, type, session, data_chat_id, sender_id,
		       sender_name, content, url_title, url_description, timestamp,
		       datetime, processed, created_at
		FROM messages
		WHERE session = ?
	`
)

// Instance and QR event queries
const (
	updateInstanceFlagsQuery = `
		UPDATE instances
		SET phone_connected = ?, waiting_qrcode = ?, qr_read_error = ?,
		    verified_at = CURRENT_TIMESTAMP
		WHERE session_key = ?
	`

	selectInstanceQuery = `
		SELECT id, client_id, session_key, phone_connected, waiting_qrcode,
		       qr_read_error, verified_at
		FROM instances
		WHERE session_key = ?
	`

	insertQREventQuery = `
		INSERT INTO qr_events (attempts, result, session, state, status, qrcode, url_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	selectLatestQREventQuery = `
		SELECT id, attempts, result, session, state, status, qrcode, url_code, created_at
		FROM qr_events
		WHERE session = ?
		ORDER BY id DESC
		LIMIT 1
	`
)

// Monitoring rule and alert queries
const (
	selectMonitoredGroupByGroupIDQuery = `
		SELECT id, instance_id, client_id, investigation_id, session, group_id, active
		FROM monitored_groups
		WHERE group_id = ? AND active = 1
		LIMIT 1
	`

	selectActiveMonitoredGroupsQuery = `
		SELECT mg.id, mg.instance_id, mg.client_id, mg.investigation_id,
		       mg.session, mg.group_id, mg.active
		FROM monitored_groups mg
		WHERE mg.client_id = ? AND mg.session = ? AND mg.active = 1
	`

	selectMonitoredItemsQuery = `
		SELECT id, monitored_group_id, client_id, is_member, value, active
		FROM monitored_items
		WHERE monitored_group_id = ? AND active = 1
	`

	insertAlertQuery = `
		INSERT INTO alerts (client_id, instance_id, monitored_group_id, monitored_item_id, message_id)
		VALUES (?, ?, ?, ?, ?)
	`

	selectAlertsQuery = `
		SELECT id, client_id, instance_id, monitored_group_id, monitored_item_id,
		       message_id, created_at
		FROM alerts
		WHERE client_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`
)
