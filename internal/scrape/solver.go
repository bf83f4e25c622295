package scrape

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Solver turns a captcha image into its text. Implementations are external
// collaborators; errors surface as session failures.
type Solver interface {
	Solve(ctx context.Context, image []byte) (string, error)
}

const twoCaptchaBase = "https://2captcha.com"

// TwoCaptcha submits image captchas to the 2captcha HTTP API and polls for
// the solved text. The API is a two-endpoint form interface (in.php/res.php)
// with its own polling cadence, so this client is hand-rolled on net/http.
type TwoCaptcha struct {
	apiKey    string
	base      string
	client    *http.Client
	pollEvery time.Duration
	maxPolls  int
}

// NewTwoCaptcha builds a solver client. Solving typically takes around ten
// seconds; the poll budget allows up to a minute.
func NewTwoCaptcha(apiKey string) *TwoCaptcha {
	return &TwoCaptcha{
		apiKey:    apiKey,
		base:      twoCaptchaBase,
		client:    &http.Client{Timeout: 30 * time.Second},
		pollEvery: 3 * time.Second,
		maxPolls:  20,
	}
}

type twoCaptchaResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// Solve uploads the image and polls until the worker returns the text.
func (t *TwoCaptcha) Solve(ctx context.Context, image []byte) (string, error) {
	form := url.Values{
		"key":    {t.apiKey},
		"method": {"base64"},
		"body":   {base64.StdEncoding.EncodeToString(image)},
		"json":   {"1"},
	}

	submitted, err := t.post(ctx, t.base+"/in.php", form)
	if err != nil {
		return "", err
	}
	if submitted.Status != 1 {
		return "", fmt.Errorf("captcha submit rejected: %s", submitted.Request)
	}
	id := submitted.Request

	for i := 0; i < t.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pollEvery):
		}

		res, err := t.get(ctx, fmt.Sprintf("%s/res.php?key=%s&action=get&id=%s&json=1", t.base, url.QueryEscape(t.apiKey), url.QueryEscape(id)))
		if err != nil {
			return "", err
		}
		if res.Status == 1 {
			return res.Request, nil
		}
		if res.Request != "CAPCHA_NOT_READY" {
			return "", fmt.Errorf("captcha solve failed: %s", res.Request)
		}
	}
	return "", fmt.Errorf("captcha solve timed out after %d polls", t.maxPolls)
}

func (t *TwoCaptcha) post(ctx context.Context, endpoint string, form url.Values) (*twoCaptchaResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.do(req)
}

func (t *TwoCaptcha) get(ctx context.Context, endpoint string) (*twoCaptchaResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return t.do(req)
}

func (t *TwoCaptcha) do(req *http.Request) (*twoCaptchaResponse, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("2captcha: HTTP %d", resp.StatusCode)
	}
	var out twoCaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
