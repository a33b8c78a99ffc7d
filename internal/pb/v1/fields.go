package pb

// Field names of the Struct messages exchanged with AssistantService.
const (
	// ListTools response.
	FieldServerVersion = "server_version"
	FieldTools         = "tools"
	FieldName          = "name"
	FieldDescription   = "description"
	FieldParameters    = "parameters"

	// Connect request.
	FieldFunctionCalling = "function_calling"
	FieldHostname        = "hostname"
	FieldUsername        = "username"

	// Connect events.
	FieldType      = "type"
	FieldSessionID = "session_id"
	FieldText      = "text"
	FieldMode      = "mode"

	// InvokeTool request and response.
	FieldArguments = "arguments"
	FieldAction    = "action"
	FieldResult    = "result"
	FieldResponse  = "response"
)
