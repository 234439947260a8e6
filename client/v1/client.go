// Operations Manager administration gateway HTTP API client written in Go
package client

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/scomtools/channelctl/channel"
)

const DefaultUserAgent = "ChannelctlClient"

// HTTP configuration for connecting to the administration gateway
type Config struct {
	// The URL of the administration gateway.
	URL string

	// Timeout for API requests, defaults to no timeout.
	Timeout time.Duration

	// UserAgent is the http User Agent, defaults to "ChannelctlClient".
	UserAgent string

	// InsecureSkipVerify gets passed to the http client, if true, it will
	// skip https certificate verification. Defaults to false.
	InsecureSkipVerify bool
}

// Basic HTTP client implementing channel.Management against the gateway.
type Client struct {
	url        *url.URL
	userAgent  string
	httpClient *http.Client
}

// Create a new client.
func New(conf Config) (*Client, error) {
	if conf.UserAgent == "" {
		conf.UserAgent = DefaultUserAgent
	}

	u, err := url.Parse(conf.URL)
	if err != nil {
		return nil, err
	} else if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf(
			"unsupported protocol scheme: %s, your address must start with http:// or https://",
			u.Scheme,
		)
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: conf.InsecureSkipVerify,
		},
	}
	return &Client{
		url:       u,
		userAgent: conf.UserAgent,
		httpClient: &http.Client{
			Timeout:   conf.Timeout,
			Transport: tr,
		},
	}, nil
}

// Wire representation of a channel. Properties is the per-channel-type
// property bag the gateway exposes; only email actions are decoded here.
type channelInfo struct {
	ID          string                 `json:"ID"`
	DisplayName string                 `json:"DisplayName"`
	Type        string                 `json:"Type"`
	Properties  map[string]interface{} `json:"Properties"`
}

type emailProperties struct {
	BodyEncoding    string             `mapstructure:"body-encoding"`
	SubjectEncoding string             `mapstructure:"subject-encoding"`
	From            string             `mapstructure:"from"`
	ReplyTo         string             `mapstructure:"reply-to"`
	Endpoint        endpointProperties `mapstructure:"endpoint"`
}

type endpointProperties struct {
	ID            string `mapstructure:"id" json:"ID,omitempty"`
	DisplayName   string `mapstructure:"display-name" json:"DisplayName"`
	Description   string `mapstructure:"description" json:"Description"`
	Server        string `mapstructure:"server" json:"Server"`
	Port          int    `mapstructure:"port" json:"Port"`
	Auth          string `mapstructure:"auth" json:"Auth"`
	RetryInterval int    `mapstructure:"retry-interval" json:"RetryInterval"`
}

// Perform the request.
// If result is not nil the response body is JSON decoded into result.
// Codes is a list of valid response codes.
// Gateway conditions map onto the channel error taxonomy: 404 means the
// object does not exist, 503 means no active management group session.
func (c *Client) do(req *http.Request, result interface{}, codes ...int) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	valid := false
	for _, code := range codes {
		if resp.StatusCode == code {
			valid = true
			break
		}
	}
	if !valid {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, channel.ErrNotFound
		case http.StatusServiceUnavailable:
			return nil, channel.ErrNoSession
		}
		body, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		type errResp struct {
			Error string `json:"Error"`
		}
		rp := errResp{}
		json.Unmarshal(body, &rp)
		if rp.Error != "" {
			return nil, errors.New(rp.Error)
		}
		return nil, errors.Errorf("invalid response: code %d: body: %s", resp.StatusCode, string(body))
	}
	if result != nil {
		d := json.NewDecoder(resp.Body)
		d.Decode(result)
	}
	return resp, nil
}

// Ping the gateway for a response.
// Ping returns how long the request took, the version of the gateway it
// connected to, and an error if one occurred.
func (c *Client) Ping() (time.Duration, string, error) {
	now := time.Now()
	u := *c.url
	u.Path = "ping"

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return 0, "", err
	}

	resp, err := c.do(req, nil, http.StatusNoContent)
	if err != nil {
		return 0, "", err
	}
	version := resp.Header.Get("X-Scom-Gateway-Version")
	return time.Since(now), version, nil
}

// ChannelByName resolves an existing channel by display name.
func (c *Client) ChannelByName(name string) (*channel.ExistingChannel, error) {
	v := url.Values{}
	v.Add("name", name)
	return c.getChannel(v)
}

// ChannelByID resolves an existing channel by id.
func (c *Client) ChannelByID(id uuid.UUID) (*channel.ExistingChannel, error) {
	v := url.Values{}
	v.Add("id", id.String())
	return c.getChannel(v)
}

func (c *Client) getChannel(v url.Values) (*channel.ExistingChannel, error) {
	u := *c.url
	u.Path = "channel"
	u.RawQuery = v.Encode()

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return nil, err
	}

	// Response type
	type response struct {
		Error    string        `json:"Error"`
		Channels []channelInfo `json:"Channels"`
	}

	r := &response{}

	_, err = c.do(req, r, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if len(r.Channels) == 0 {
		return nil, channel.ErrNotFound
	}
	return decodeChannel(r.Channels[0])
}

func decodeChannel(info channelInfo) (*channel.ExistingChannel, error) {
	var props emailProperties
	if err := mapstructure.Decode(info.Properties, &props); err != nil {
		return nil, errors.Wrapf(err, "decoding properties for channel %q", info.DisplayName)
	}
	id, err := uuid.Parse(info.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid id for channel %q", info.DisplayName)
	}
	ep := &channel.DeliveryEndpoint{
		DisplayName:   props.Endpoint.DisplayName,
		Description:   props.Endpoint.Description,
		Server:        props.Endpoint.Server,
		Port:          props.Endpoint.Port,
		Auth:          channel.AuthMode(props.Endpoint.Auth),
		RetryInterval: props.Endpoint.RetryInterval,
	}
	if props.Endpoint.ID != "" {
		epID, err := uuid.Parse(props.Endpoint.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid endpoint id for channel %q", info.DisplayName)
		}
		ep.ID = epID
	}
	return &channel.ExistingChannel{
		ID:              id,
		DisplayName:     info.DisplayName,
		BodyEncoding:    props.BodyEncoding,
		SubjectEncoding: props.SubjectEncoding,
		From:            props.From,
		ReplyTo:         props.ReplyTo,
		Endpoint:        ep,
	}, nil
}

// ConnectedUser returns the domain-qualified user of the current gateway
// session.
func (c *Client) ConnectedUser() (string, error) {
	u := *c.url
	u.Path = "session"

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return "", err
	}

	type response struct {
		Error string `json:"Error"`
		User  string `json:"User"`
	}

	r := &response{}

	_, err = c.do(req, r, http.StatusOK)
	if err != nil {
		return "", err
	}
	return r.User, nil
}

// SaveEndpoint persists a delivery endpoint. Create semantics when the
// endpoint carries no identity; the assigned id is written back.
func (c *Client) SaveEndpoint(ep *channel.DeliveryEndpoint) error {
	body := endpointProperties{
		DisplayName:   ep.DisplayName,
		Description:   ep.Description,
		Server:        ep.Server,
		Port:          ep.Port,
		Auth:          string(ep.Auth),
		RetryInterval: ep.RetryInterval,
	}
	if ep.ID != uuid.Nil {
		body.ID = ep.ID.String()
	}
	id, err := c.save("endpoint", ep.ID, body)
	if err != nil {
		return errors.Wrap(err, "saving endpoint")
	}
	ep.ID = id
	return nil
}

// SaveChannel persists a channel definition. Always create semantics for
// definitions produced here, since their identity is never set.
func (c *Client) SaveChannel(def *channel.Definition) error {
	type headerInfo struct {
		Name  string `json:"Name"`
		Value string `json:"Value"`
	}
	headers := make([]headerInfo, 0, len(def.Headers))
	for _, h := range def.Headers {
		headers = append(headers, headerInfo{Name: h.Name, Value: h.Value})
	}
	body := struct {
		ID              string       `json:"ID,omitempty"`
		DisplayName     string       `json:"DisplayName"`
		Description     string       `json:"Description"`
		Subject         string       `json:"Subject"`
		Body            string       `json:"Body"`
		IsHTML          bool         `json:"IsHTML"`
		Headers         []headerInfo `json:"Headers"`
		BodyEncoding    string       `json:"BodyEncoding"`
		SubjectEncoding string       `json:"SubjectEncoding"`
		From            string       `json:"From"`
		ReplyTo         string       `json:"ReplyTo"`
		EndpointID      string       `json:"EndpointID"`
	}{
		DisplayName:     def.DisplayName,
		Description:     def.Description,
		Subject:         def.Subject,
		Body:            def.Body,
		IsHTML:          def.IsHTML,
		Headers:         headers,
		BodyEncoding:    def.BodyEncoding,
		SubjectEncoding: def.SubjectEncoding,
		From:            def.From,
		ReplyTo:         def.ReplyTo,
		EndpointID:      def.Endpoint.ID.String(),
	}
	if def.ID != uuid.Nil {
		body.ID = def.ID.String()
	}
	id, err := c.save("channel", def.ID, body)
	if err != nil {
		return errors.Wrap(err, "saving channel")
	}
	def.ID = id
	return nil
}

// save POSTs new objects and PUTs existing ones, returning the identity
// the gateway assigned or confirmed.
func (c *Client) save(path string, id uuid.UUID, body interface{}) (uuid.UUID, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return uuid.Nil, err
	}

	u := *c.url
	u.Path = path

	method := "POST"
	if id != uuid.Nil {
		method = "PUT"
		v := url.Values{}
		v.Add("id", id.String())
		u.RawQuery = v.Encode()
	}

	req, err := http.NewRequest(method, u.String(), bytes.NewReader(buf))
	if err != nil {
		return uuid.Nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	type response struct {
		Error string `json:"Error"`
		ID    string `json:"ID"`
	}

	r := &response{}

	_, err = c.do(req, r, http.StatusOK, http.StatusCreated)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(r.ID)
}
