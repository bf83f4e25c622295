package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/config"
)

// Portal selectors. The enquiry page renders the captcha inside an iframe
// and reports "no record" through a backend-error table.
const (
	selCaptchaFrame = `#main-content > div.dt-container > div:nth-child(2) > form > div.form-group.clearfix > div > iframe`
	selCaptchaInput = `#main-content > div.dt-container > div:nth-child(2) > form > div.form-group.clearfix > div > div > input.form-control`
	selPlateField   = `#vehNoField`
	selAgreeTC      = `#agreeTCbox`
	selSubmit       = `#main-content > div.dt-container > div:nth-child(2) > form > div.dt-btn-group > button`
	selCarMake      = `#main-content > div.dt-container > div:nth-child(2) > form > div.dt-container > div.dt-payment-dtls > div > div.col-xs-5.separated > div:nth-child(2) > p`
	selNotFound     = `#backend-error > table > tbody > tr > td > p`
	selTaxExpiry    = `#main-content > div.dt-container > div:nth-child(2) > form > div.dt-container > div.dt-detail-content.dt-usg-dt-wrpr > div > div > p.vrlDT-content-p`
)

// notFoundBanner is the exact text the portal shows above its error table.
const notFoundBanner = "Please note the following:"

var sessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "scrape_sessions_total",
	Help: "Portal scrape sessions by terminal state.",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(sessionsTotal)
}

// Result is a successful extraction. RoadTaxExpiry may be empty; the portal
// omits the field for some vehicle classes and that is not a failure.
type Result struct {
	License       string
	CarMake       string
	RoadTaxExpiry string
}

// Session runs one lookup per call against the portal, driving a dedicated
// headless browser through the captcha flow. Sessions never overlap; the
// request queue guarantees that.
type Session struct {
	cfg      config.PortalConfig
	solver   Solver
	cacheDir string
	log      zerolog.Logger

	// fatal is invoked when the watchdog declares the session stuck. The
	// default exits the process: with a single-concurrency queue a stuck
	// session would block every future request, so dying and letting the
	// supervisor restart is the safer failure.
	fatal func(string)
}

// NewSession builds the scrape session runner.
func NewSession(cfg config.PortalConfig, solver Solver, cacheDir string, log zerolog.Logger) *Session {
	s := &Session{
		cfg:      cfg,
		solver:   solver,
		cacheDir: cacheDir,
		log:      log,
	}
	s.fatal = func(msg string) {
		s.log.Fatal().Msg(msg)
	}
	return s
}

// Lookup runs the full state machine for one plate: navigate, capture and
// solve the captcha, submit the form, and extract the result. progress, if
// non-nil, receives human-readable status updates for the waiting chat.
// The browser session and the captcha artifact are released on every path.
func (s *Session) Lookup(ctx context.Context, chatID int64, plate string, progress func(string)) (*Result, error) {
	res, err := s.run(ctx, chatID, plate, progress)
	switch {
	case err == nil:
		sessionsTotal.WithLabelValues("success").Inc()
	case errors.Is(err, ErrNoResult):
		sessionsTotal.WithLabelValues("no_result").Inc()
	case errors.Is(err, ErrCaptcha), errors.Is(err, ErrNoCaptcha):
		sessionsTotal.WithLabelValues("captcha").Inc()
	case errors.Is(err, ErrTimeout):
		sessionsTotal.WithLabelValues("timeout").Inc()
	default:
		sessionsTotal.WithLabelValues("transport").Inc()
	}
	return res, err
}

func (s *Session) run(ctx context.Context, chatID int64, plate string, progress func(string)) (*Result, error) {
	log := s.log.With().Int64("chat_id", chatID).Str("plate", plate).Logger()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browser, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	stopWatchdog := s.watchdog(chatID)
	defer stopWatchdog()

	// Init -> Navigated
	if err := chromedp.Run(browser,
		chromedp.Navigate(s.cfg.URL),
		chromedp.Sleep(s.cfg.SettleDelay),
	); err != nil {
		return nil, classify(err, ErrTransport)
	}

	// Navigated -> CaptchaCaptured
	if err := s.runWithTimeout(browser, s.cfg.ElementWait,
		chromedp.WaitVisible(selCaptchaFrame, chromedp.ByQuery),
	); err != nil {
		log.Warn().Err(err).Msg("no captcha found")
		return nil, ErrNoCaptcha
	}

	var shot []byte
	if err := s.runWithTimeout(browser, s.cfg.ElementWait,
		chromedp.Screenshot(selCaptchaFrame, &shot, chromedp.NodeVisible, chromedp.ByQuery),
	); err != nil {
		return nil, classify(err, ErrTransport)
	}

	artifact := filepath.Join(s.cacheDir, fmt.Sprintf("screenshot_%d.png", chatID))
	defer removeArtifact(artifact)

	if err := s.prepareCaptchaAsset(shot, artifact); err != nil {
		log.Warn().Err(err).Msg("captcha asset not produced")
		return nil, ErrCaptcha
	}

	// CaptchaCaptured -> CaptchaSolved
	log.Debug().Msg("captcha found, submitting to solver")
	if progress != nil {
		progress("Trying to solve captcha, this might take up to 10s...")
	}
	asset, err := os.ReadFile(artifact)
	if err != nil {
		return nil, ErrCaptcha
	}
	captchaText, err := s.solver.Solve(ctx, asset)
	if err != nil {
		log.Warn().Err(err).Msg("captcha solve failed")
		return nil, ErrCaptcha
	}
	log.Debug().Msg("captcha solved")

	// CaptchaSolved -> FormSubmitted
	if err := s.runWithTimeout(browser, s.cfg.ElementWait,
		chromedp.SendKeys(selCaptchaInput, captchaText, chromedp.ByQuery),
		chromedp.SendKeys(selPlateField, plate, chromedp.ByQuery),
		chromedp.Click(selAgreeTC, chromedp.ByQuery),
	); err != nil {
		return nil, classify(err, ErrTransport)
	}
	log.Debug().Msg("submitting form")
	if err := chromedp.Run(browser,
		chromedp.Click(selSubmit, chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, classify(err, ErrTransport)
	}

	// FormSubmitted -> ResultExtracted: probe the disjoint not-found banner
	// and vehicle-make regions and let their combination decide.
	notFoundText, notFoundOK := s.elementText(browser, selNotFound, s.cfg.ElementWait)
	makeText, makeOK := s.elementText(browser, selCarMake, s.cfg.ElementWait)
	if err := classifyExtraction(notFoundText, notFoundOK, makeText, makeOK); err != nil {
		log.Info().Msg("no car make found")
		return nil, err
	}

	result := &Result{License: plate, CarMake: cleanText(makeText)}

	// The expiry field is optional; absence is not a failure.
	if expiry, ok := s.elementText(browser, selTaxExpiry, s.cfg.ExpiryWait); ok {
		result.RoadTaxExpiry = cleanText(expiry)
	}

	log.Debug().Str("make", result.CarMake).Msg("scrape succeeded")
	return result, nil
}

// prepareCaptchaAsset crops the raw widget screenshot to the captcha region
// and writes it to path, then polls for the file to land before declaring
// the asset available.
func (s *Session) prepareCaptchaAsset(shot []byte, path string) error {
	img, err := imaging.Decode(bytes.NewReader(shot))
	if err != nil {
		return err
	}
	cropped := imaging.Crop(img, image.Rect(0, 0, s.cfg.CropWidth, s.cfg.CropHeight))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := imaging.Save(cropped, path); err != nil {
		return err
	}

	for i := 0; ; i++ {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if i >= s.cfg.AssetPollTries {
			return errors.New("cropped captcha asset never appeared")
		}
		time.Sleep(s.cfg.AssetPollEvery)
	}
}

// watchdog terminates the process when a session overruns its budget. A
// stuck browser would otherwise wedge the single-concurrency lane forever.
func (s *Session) watchdog(chatID int64) (stop func()) {
	start := time.Now()
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.cfg.WatchdogEvery)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if elapsed := time.Since(start); elapsed > s.cfg.MaxRuntime {
					s.fatal(fmt.Sprintf("scrape session for chat %d stuck after %s, terminating", chatID, elapsed.Round(time.Second)))
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

func (s *Session) runWithTimeout(ctx context.Context, wait time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

// elementText reads the text content of sel, reporting absence instead of
// an error when the element never shows up within the wait budget.
func (s *Session) elementText(ctx context.Context, sel string, wait time.Duration) (string, bool) {
	tctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	var out string
	if err := chromedp.Run(tctx, chromedp.Text(sel, &out, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return "", false
	}
	return out, true
}

// classifyExtraction decides the terminal state of the result-probe step:
// the not-found banner wins, and a missing or empty make field means the
// portal has no record for the plate.
func classifyExtraction(notFoundText string, notFoundOK bool, makeText string, makeOK bool) error {
	if notFoundOK && strings.TrimSpace(notFoundText) == notFoundBanner {
		return ErrNoResult
	}
	if !makeOK || cleanText(makeText) == "" {
		return ErrNoResult
	}
	return nil
}

// classify converts a raw automation error into its taxonomy value,
// distinguishing timeouts so the user-facing message can say so.
func classify(err error, fallback error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fallback
}

// removeArtifact deletes the temporary captcha image if it exists.
func removeArtifact(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}

var multiSpace = regexp.MustCompile(`\s\s+`)

// cleanText collapses runs of whitespace and trims, matching how portal
// cells pad their values.
func cleanText(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}
