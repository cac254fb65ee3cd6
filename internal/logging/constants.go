package logging

// Standardized field names for structured logging, so folder, file and
// submission events can be filtered consistently.
const (
	FieldRunID         = "run_id"
	FieldFolder        = "folder"
	FieldFile          = "file_path"
	FieldRow           = "row"
	FieldColumn        = "column"
	FieldTransactionID = "transaction_id"
	FieldReason        = "reason"
	FieldScheme        = "scheme"
	FieldStatus        = "status"
	FieldHTTPStatus    = "http_status"
	FieldRequestID     = "request_id"
	FieldEndpoint      = "endpoint"
	FieldError         = "error"
	FieldCount         = "count"
	FieldDelimiter     = "delimiter"
	FieldMappingFile   = "mapping_file"
	FieldDuration      = "duration_ms"
)
