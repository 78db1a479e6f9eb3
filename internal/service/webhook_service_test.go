package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/delivery"
	"github.com/vientofactory/lawcast-backend/internal/domain"
	"github.com/vientofactory/lawcast-backend/internal/repository"
	"github.com/vientofactory/lawcast-backend/internal/service"
	"github.com/vientofactory/lawcast-backend/internal/verification"
)

func discordURL() string {
	id := strings.Repeat("1", 18)
	token := strings.Repeat("a", 68)
	return "https://discord.com/api/webhooks/" + id + "/" + token
}

// redirectingClient builds a delivery.Client whose requests are transparently
// rewritten to target srv regardless of the URL's host, so a request can
// carry a valid discord.com URL (satisfying domain.ValidateWebhookURL) while
// actually landing on the local test server.
func redirectingClient(srv *httptest.Server) *delivery.Client {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = strings.TrimPrefix(srv.URL, "http://")
		return http.DefaultTransport.RoundTrip(req)
	})
	return delivery.NewClientWithHTTPClient(&http.Client{Transport: rt, Timeout: 2 * time.Second})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestWebhookService_Register_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	repo := repository.NewMockEndpointRepository()
	verifier := &verification.MockVerifier{Result: true}
	dc := redirectingClient(srv)
	svc := service.NewWebhookService(repo, verifier, dc, 100, zap.NewNop())

	ep, err := svc.Register(context.Background(), domain.RegisterWebhookRequest{URL: discordURL(), RecaptchaToken: "tok"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !ep.Active {
		t.Fatal("expected endpoint to be active")
	}
}

func TestWebhookService_Register_RejectsBadURL(t *testing.T) {
	repo := repository.NewMockEndpointRepository()
	verifier := &verification.MockVerifier{Result: true}
	dc := delivery.NewClient(time.Second)
	svc := service.NewWebhookService(repo, verifier, dc, 100, zap.NewNop())

	_, err := svc.Register(context.Background(), domain.RegisterWebhookRequest{URL: "not-a-url", RecaptchaToken: "tok"})
	if !errors.Is(err, domain.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestWebhookService_Register_RejectsFailedVerification(t *testing.T) {
	repo := repository.NewMockEndpointRepository()
	verifier := &verification.MockVerifier{Result: false}
	dc := delivery.NewClient(time.Second)
	svc := service.NewWebhookService(repo, verifier, dc, 100, zap.NewNop())

	_, err := svc.Register(context.Background(), domain.RegisterWebhookRequest{URL: discordURL(), RecaptchaToken: "tok"})
	if !errors.Is(err, domain.ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestWebhookService_Register_RejectsVerificationOracleError(t *testing.T) {
	repo := repository.NewMockEndpointRepository()
	verifier := &verification.MockVerifier{Err: errors.New("recaptcha unreachable")}
	dc := delivery.NewClient(time.Second)
	svc := service.NewWebhookService(repo, verifier, dc, 100, zap.NewNop())

	_, err := svc.Register(context.Background(), domain.RegisterWebhookRequest{URL: discordURL(), RecaptchaToken: "tok"})
	if err == nil {
		t.Fatal("expected an error from a failing verification oracle")
	}
}

func TestWebhookService_Register_RejectsDuplicateActiveURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	repo := repository.NewMockEndpointRepository()
	verifier := &verification.MockVerifier{Result: true}
	dc := redirectingClient(srv)
	svc := service.NewWebhookService(repo, verifier, dc, 100, zap.NewNop())

	ctx := context.Background()
	url := discordURL()
	if _, err := repo.CreateOrReactivate(ctx, url); err != nil {
		t.Fatalf("seed endpoint: %v", err)
	}

	_, err := svc.Register(ctx, domain.RegisterWebhookRequest{URL: url, RecaptchaToken: "tok"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestWebhookService_Register_RejectsQuotaExceeded(t *testing.T) {
	repo := repository.NewMockEndpointRepository()
	verifier := &verification.MockVerifier{Result: true}
	dc := delivery.NewClient(time.Second)
	svc := service.NewWebhookService(repo, verifier, dc, 1, zap.NewNop())

	ctx := context.Background()
	seedID := strings.Repeat("2", 18)
	seedToken := strings.Repeat("b", 68)
	if _, err := repo.CreateOrReactivate(ctx, "https://discord.com/api/webhooks/"+seedID+"/"+seedToken); err != nil {
		t.Fatalf("seed endpoint: %v", err)
	}

	_, err := svc.Register(ctx, domain.RegisterWebhookRequest{URL: discordURL(), RecaptchaToken: "tok"})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestWebhookService_Register_RejectsDeliveryTestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	repo := repository.NewMockEndpointRepository()
	verifier := &verification.MockVerifier{Result: true}
	dc := redirectingClient(srv)
	svc := service.NewWebhookService(repo, verifier, dc, 100, zap.NewNop())

	_, err := svc.Register(context.Background(), domain.RegisterWebhookRequest{URL: discordURL(), RecaptchaToken: "tok"})
	var testErr *domain.DeliveryTestError
	if !errors.As(err, &testErr) {
		t.Fatalf("expected DeliveryTestError, got %v", err)
	}
	if testErr.Category != domain.CategoryNotFound {
		t.Fatalf("expected not-found category, got %v", testErr.Category)
	}
}
