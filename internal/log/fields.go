package log

// Field names shared by every component.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldSessionID     = "session_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "id"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldPayer         = "user"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStore     = "store"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentSeed      = "seed"
)

// Fields collects structured attributes in insertion order.
type Fields []any

func NewFields() Fields {
	return make(Fields, 0, 16)
}

func (f Fields) Add(key string, value any) Fields {
	return append(f, key, value)
}

func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return append(f, FieldError, err.Error())
}

func (f Fields) WithRequest(method, path, query, userAgent string) Fields {
	return append(f,
		FieldMethod, method,
		FieldPath, path,
		FieldQuery, query,
		FieldUserAgent, userAgent)
}

func (f Fields) WithResponse(status int, durationMs int64) Fields {
	return append(f, FieldStatusCode, status, FieldDuration, durationMs)
}
