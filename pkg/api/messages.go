package api

type (
	// CreateFlowRequest contains parameters for starting a new scan flow
	CreateFlowRequest struct {
		Target string     `json:"target"`
		Method ScanMethod `json:"method"`
	}

	// FlowsListResponse contains a list of flows
	FlowsListResponse struct {
		Flows []*Flow `json:"flows"`
		Count int     `json:"count"`
	}

	// QueryFlowsRequest filters flows by a gjson path match against each
	// flow's JSON document
	QueryFlowsRequest struct {
		Path  string `json:"path"`
		Value string `json:"value,omitempty"`
	}

	// Metrics summarizes fleet-wide scan activity
	Metrics struct {
		TotalScans  int     `json:"totalScans"`
		OpenIssues  int     `json:"openIssues"`
		SuccessRate float64 `json:"successRate"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// FlowLogsResponse contains a flow's activity log
	FlowLogsResponse struct {
		Logs  []*LogEntry `json:"logs"`
		Count int         `json:"count"`
	}

	// ClientSubscription narrows the events a websocket client receives.
	// An empty subscription receives everything
	ClientSubscription struct {
		FlowID     FlowID   `json:"flowId,omitempty"`
		EventTypes []string `json:"eventTypes,omitempty"`
	}

	// SubscribeRequest is the message a websocket client sends to select
	// its event feed
	SubscribeRequest struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}

	// ErrorInfo describes a failed request
	ErrorInfo struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	}

	// ErrorResponse is the envelope for all error responses
	ErrorResponse struct {
		Error ErrorInfo `json:"error"`
	}
)

// Error codes reported in ErrorResponse envelopes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeExecutionError      = "EXECUTION_ERROR"
	CodeResultsNotAvailable = "RESULTS_NOT_AVAILABLE"
)

// NewErrorResponse builds an error envelope with the given code and message
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}
