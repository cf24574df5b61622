package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
)

const errEmptyResult = "empty result"

// Response is the single shape every caller receives. Data is set when
// Success is true, Error otherwise.
type Response struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func Success(data map[string]any) Response {
	if data == nil {
		data = map[string]any{}
	}
	return Response{Success: true, Data: data}
}

func Failure(msg string) Response {
	if strings.TrimSpace(msg) == "" {
		msg = "unknown error"
	}
	return Response{Error: msg}
}

// MarshalJSON always emits data on success (possibly {}) and error on failure.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Success {
		data := r.Data
		if data == nil {
			data = map[string]any{}
		}
		return json.Marshal(struct {
			Success bool           `json:"success"`
			Data    map[string]any `json:"data"`
		}{true, data})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, r.Error})
}

// Normalize converts anything a tool or the model produced into a Response.
// It never fails: parse problems degrade to a {message} payload.
func Normalize(v any) Response {
	switch x := v.(type) {
	case nil:
		return Failure(errEmptyResult)
	case Response:
		return x
	case *Response:
		if x == nil {
			return Failure(errEmptyResult)
		}
		return *x
	case tool.Result:
		return fromResult(x)
	case *tool.Result:
		if x == nil {
			return Failure(errEmptyResult)
		}
		return fromResult(*x)
	case error:
		return Failure(x.Error())
	case string:
		return normalizeText(x)
	case json.RawMessage:
		return normalizeText(string(x))
	case []byte:
		return normalizeText(string(x))
	case map[string]any:
		return Success(x)
	default:
		return Success(toObject(x))
	}
}

func fromResult(r tool.Result) Response {
	if !r.OK {
		if strings.TrimSpace(r.Message) == "" {
			return Failure("tool failed")
		}
		return Failure(r.Message)
	}
	if r.Data == nil {
		return Success(nil)
	}
	if m, ok := r.Data.(map[string]any); ok {
		return Success(m)
	}
	return Success(toObject(r.Data))
}

// normalizeText parses only object literals. A serialized Response comes back
// as that Response.
func normalizeText(s string) Response {
	t := strings.TrimSpace(s)
	if t == "" {
		return Failure(errEmptyResult)
	}
	if !strings.HasPrefix(t, "{") {
		return Success(map[string]any{"message": t})
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(t), &obj); err != nil || obj == nil {
		return Success(map[string]any{"message": t})
	}
	if r, ok := asResponse(obj); ok {
		return r
	}
	return Success(obj)
}

// asResponse recognizes {"success":bool, "data"?:{...}, "error"?:string}.
func asResponse(obj map[string]any) (Response, bool) {
	ok, isBool := obj["success"].(bool)
	if !isBool {
		return Response{}, false
	}
	for k := range obj {
		if k != "success" && k != "data" && k != "error" {
			return Response{}, false
		}
	}
	if !ok {
		msg, _ := obj["error"].(string)
		return Failure(msg), true
	}
	data, isObj := obj["data"].(map[string]any)
	if obj["data"] != nil && !isObj {
		return Response{}, false
	}
	return Success(data), true
}

// toObject converts v to a JSON object, wrapping non-objects as {result: v}.
func toObject(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"result": fmt.Sprint(v)}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err == nil && m != nil {
		return m
	}
	var generic any
	_ = json.Unmarshal(b, &generic)
	return map[string]any{"result": generic}
}
