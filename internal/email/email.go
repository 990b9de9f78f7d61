package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://send.api.mailtrap.io/api/send"

var ErrMissingCredentials = errors.New("email api token is not configured")

type Client struct {
	sender  Address
	client  *http.Client
	token   string
	baseURL string
}

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Message is a single transactional email.
type Message struct {
	To       Address
	Subject  string
	HTML     string
	Text     string
	Category string
}

type emailPayload struct {
	From     Address   `json:"from"`
	To       []Address `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html,omitempty"`
	Text     string    `json:"text,omitempty"`
	Category string    `json:"category,omitempty"`
}

func NewClient(token, baseURL string, sender Address, timeout time.Duration) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Client{
		sender:  sender,
		client:  &http.Client{Timeout: timeout},
		token:   token,
		baseURL: baseURL,
	}
}

func (e Client) Sender() Address {
	return e.sender
}

// Send delivers msg through the transactional email API. Any status code of
// 400 or above is returned as an error carrying the response body.
func (e Client) Send(ctx context.Context, msg Message) error {
	if e.token == "" {
		return ErrMissingCredentials
	}
	reqData, err := json.Marshal(emailPayload{
		From:     e.sender,
		To:       []Address{msg.To},
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		Text:     msg.Text,
		Category: msg.Category,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(reqData))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+e.token)
	req.Header.Add("content-type", "application/json")
	res, err := e.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "unable to send email to %s", msg.To.Email)
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		errBody, err := ioutil.ReadAll(res.Body)
		if err != nil {
			errBody = []byte(`unable to read body`)
		}
		return fmt.Errorf("got status code %d when sending email: err %s", res.StatusCode, string(errBody))
	}
	return nil
}
