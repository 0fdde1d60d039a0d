package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
)

// Payloads carry user supplied text such as usernames and bank details,
// so every string is stripped of markup before it leaves the gateway.
var sanitizer = bluemonday.StrictPolicy()

func sanitizedJSONResponse(w http.ResponseWriter, i interface{}) {
	out, err := marshalAndSanitizeJSON(i)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

func marshalAndSanitizeJSON(i interface{}) ([]byte, error) {
	raw, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return sanitizeJSON(raw)
}

// sanitizeJSON decodes raw keeping numbers exact, cleans it and encodes
// it again.
func sanitizeJSON(raw []byte) ([]byte, error) {
	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()

	var v interface{}
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(sanitize(v), "", "    ")
}

// sanitize returns v with markup stripped from every string. Null object
// fields are dropped.
func sanitize(v interface{}) interface{} {
	switch tv := v.(type) {
	case string:
		return sanitizer.Sanitize(tv)
	case map[string]interface{}:
		for k, field := range tv {
			if field == nil {
				delete(tv, k)
				continue
			}
			tv[k] = sanitize(field)
		}
	case []interface{}:
		for i, elem := range tv {
			tv[i] = sanitize(elem)
		}
	}
	return v
}
