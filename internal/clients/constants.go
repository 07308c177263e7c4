package clients

import "time"

const (
	REQUEST_TIMEOUT    = 60 * time.Second
	UPLOAD_PATH        = "/files/upload"
	WORKFLOW_RUN_PATH  = "/workflows/run"
	RESPONSE_MODE      = "blocking"
	USER_AGENT         = "sentinel-review-client/1.0 (+https://github.com/spacesedan/sentinel-review)"
)
