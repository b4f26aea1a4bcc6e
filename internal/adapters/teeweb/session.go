package teeweb

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/telemetry"
)

// The user agent is pinned because the bypass transport's fingerprint must
// stay consistent with it across the whole session.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// acquireSession establishes a browsing session against the source: cookie
// jar, bypass transport, and a warm-up load of the landing page. If the
// warm-up hits a challenge, it waits a bounded number of rechecks for the
// challenge to clear.
func (a *Adapter) acquireSession(ctx context.Context) (*resty.Client, error) {
	ctx, span := tracer.Start(ctx, "teeweb.acquireSession")
	defer span.End()

	baseURL, err := url.Parse(a.config.Source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(a.config.Source.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))
	client.SetTimeout(a.config.Timeout)
	telemetry.InstrumentResty(client, "adapters/teeweb/http")

	for attempt := 0; ; attempt++ {
		response, err := client.R().SetContext(ctx).Get("/")
		if err != nil {
			return nil, fmt.Errorf("warm up session: %w", err)
		}
		if !isChallenge(response) {
			return client, nil
		}
		if attempt >= a.config.ChallengeRetries {
			return nil, adapters.ErrChallenge
		}
		select {
		case <-time.After(a.config.ChallengeWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// isChallenge recognizes an interstitial challenge page. Detection is
// deliberately loose: challenge vendors rotate markup, but the status codes
// and page titles have been stable for years.
func isChallenge(response *resty.Response) bool {
	status := response.StatusCode()
	if status != 403 && status != 503 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(response.String()))
	if err != nil {
		return true
	}
	if doc.Find("#challenge-form, #cf-challenge-running, #challenge-running").Length() > 0 {
		return true
	}
	title := strings.ToLower(doc.Find("title").Text())
	return strings.Contains(title, "just a moment") ||
		strings.Contains(title, "attention required") ||
		strings.Contains(title, "checking your browser")
}
