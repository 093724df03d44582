package utils

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/pingcap/errors"
)

type Resp struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewResp creates a Resp
func NewResp() *Resp {
	return &Resp{
		Message: "success",
	}
}

//SetData set data into Resp
func (r *Resp) SetData(data interface{}) *Resp {
	r.Data = data
	return r
}

//SetError set error into Resp
func (r *Resp) SetError(msg string) *Resp {
	r.Message = msg
	return r
}

// SendRequest sends a JSON request and decodes the Resp envelope. Non-2xx answers
// are returned as errors carrying the envelope message.
func SendRequest(method string, url string, data []byte) (*Resp, error) {
	client := &http.Client{}
	req, err := http.NewRequest(method, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Trace(err)
	}

	r := new(Resp)
	if err = json.Unmarshal(respBody, r); err != nil {
		return nil, errors.Annotatef(err, "status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return r, errors.Errorf("status %d: %s", resp.StatusCode, r.Message)
	}

	return r, nil
}
