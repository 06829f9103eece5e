package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme accepted by the server.
const BearerScheme = "Bearer"

// UploadFieldName is the multipart form field holding the uploaded file.
const UploadFieldName = "file"

// Fetch modes understood by GET /file.
const (
	FetchModeBase64   = "base64"
	FetchModeDownload = "download"
)
