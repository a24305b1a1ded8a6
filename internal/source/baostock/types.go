package baostock

// loginResponse is returned by the gateway login endpoint.
type loginResponse struct {
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	Token     string `json:"token"`
}

// queryRequest is the body sent to the gateway query endpoint. Params carry
// the method-specific arguments (code, start_date, year, quarter, ...).
type queryRequest struct {
	Method string            `json:"method"`
	Params map[string]string `json:"params"`
}

// queryResponse is the tabular result shape shared by every query method:
// a field-name header plus string-valued rows.
type queryResponse struct {
	ErrorCode string     `json:"error_code"`
	ErrorMsg  string     `json:"error_msg"`
	Fields    []string   `json:"fields"`
	Data      [][]string `json:"data"`
}

// ok reports whether the gateway accepted the query.
func (r *queryResponse) ok() bool { return r.ErrorCode == "0" }
