package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io/fs"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/dto"
	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/enum"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/testutil"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/services/messages"
	"github.com/customeros/mailgate/services/mime_extractor"
	"github.com/customeros/mailgate/services/storage"
)

type fixture struct {
	store      *testutil.Store
	root       string
	storage    interfaces.StorageService
	dispatcher *testutil.Dispatcher
	service    *Service
}

func newFixture(t *testing.T, cfg *config.IngestConfig) *fixture {
	t.Helper()
	root := t.TempDir()
	local, err := storage.NewLocalStorageService(root)
	require.NoError(t, err)
	return newFixtureWithStorage(t, cfg, root, local)
}

func newFixtureWithStorage(t *testing.T, cfg *config.IngestConfig, root string, store interfaces.StorageService) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.IngestConfig{SignatureHeader: "X-Mailgate-Signature", MaxBodyBytes: 1 << 20, MimeParser: "enmime"}
	}
	db := testutil.NewStore()
	testutil.SeedTenant(db, "")
	dispatcher := &testutil.Dispatcher{}
	return &fixture{
		store:      db,
		root:       root,
		storage:    store,
		dispatcher: dispatcher,
		service:    NewService(cfg, logger.NewNopLogger(), db.Repositories(), store, mime_extractor.NewEnmimeExtractor(), dispatcher),
	}
}

func (f *fixture) ingest(t *testing.T, submission Submission) (*Result, error) {
	t.Helper()
	trace := tracing.NewRequestTrace("trace-test01", logger.NewNopLogger())
	result, err := f.service.Ingest(context.Background(), trace, submission)
	f.service.Wait()
	return result, err
}

func (f *fixture) blobCount(t *testing.T) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(f.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func structured(t *testing.T, rcpt string, mutate func(*dto.InboundEnvelopeRequest)) Submission {
	t.Helper()
	request := dto.InboundEnvelopeRequest{
		MailFrom: "bounce@sender.example",
		RcptTos:  []string{rcpt},
		MimeB64:  base64.StdEncoding.EncodeToString(testutil.RawMime("alice@sender.example", rcpt, "Quarterly report", "numbers attached")),
	}
	if mutate != nil {
		mutate(&request)
	}
	body, err := json.Marshal(request)
	require.NoError(t, err)
	return Submission{ContentType: "application/json", Header: http.Header{}, Body: body}
}

func TestIngest_StoresAndRoundTripsThroughDetail(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddRoute(testutil.StoreRoute(1, "*", "ops@acme.example"))
	f.store.AddRoute(testutil.ForwardRoute(2, "rcpt:*@acme.example", "archive@elsewhere.example"))

	received := "2025-03-04T05:06:07Z"
	score := 1.5
	result, err := f.ingest(t, structured(t, "inbox@acme.example", func(r *dto.InboundEnvelopeRequest) {
		r.ReceivedAt = received
		r.SpamScore = &score
		r.AuthResults = "dkim=fail"
	}))
	require.NoError(t, err)

	require.True(t, result.Stored)
	assert.Equal(t, "trace-test01", result.TraceID)
	assert.ElementsMatch(t, []uint64{1, 2}, result.MatchedRouteIDs)

	message := result.Message
	require.NotNil(t, message)
	assert.NotEmpty(t, message.ID)
	assert.Equal(t, testutil.TenantID, message.TenantID)
	assert.Equal(t, testutil.DomainID, message.DomainID)
	assert.Equal(t, "alice@sender.example", message.FromEmail)
	assert.Equal(t, "Quarterly report", message.Subject)
	assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), message.ReceivedAt)
	assert.Equal(t, &score, message.SpamScore)
	require.NotNil(t, message.DKIMResult)
	assert.Equal(t, "fail", *message.DKIMResult, "explicit auth results win per mechanism")
	require.NotNil(t, message.DMARCResult)
	assert.Equal(t, "fail", *message.DMARCResult)
	require.NotNil(t, message.ARCResult)
	assert.Equal(t, "none", *message.ARCResult)
	assert.Equal(t, 1, f.blobCount(t))

	handoffs := f.dispatcher.Handoffs()
	require.Len(t, handoffs, 2)
	assert.Equal(t, enum.HandoffNotify, handoffs[0].Kind)
	assert.Equal(t, []string{"ops@acme.example"}, handoffs[0].Targets)
	assert.Equal(t, enum.HandoffForward, handoffs[1].Kind)
	assert.Equal(t, message.RawMimeRef, handoffs[1].RawMimeRef)

	query := messages.NewService(logger.NewNopLogger(), f.store.Repositories().InboundMessageRepository, f.storage, mime_extractor.NewEnmimeExtractor())
	detail, err := query.Detail(context.Background(), testutil.TenantID, message.ID)
	require.NoError(t, err)
	assert.Equal(t, message.FromEmail, detail.From)
	assert.Equal(t, message.Subject, detail.Subject)
	assert.Equal(t, message.DKIMResult, detail.DKIM)
	assert.Equal(t, message.DMARCResult, detail.DMARC)
	assert.Equal(t, message.ARCResult, detail.ARC)
	assert.Contains(t, detail.Body.Text, "numbers attached")
}

func TestIngest_Signature(t *testing.T) {
	cfg := &config.IngestConfig{WebhookSecret: "s3cret", SignatureHeader: "X-Mailgate-Signature", MaxBodyBytes: 1 << 20, MimeParser: "enmime"}
	f := newFixture(t, cfg)
	f.store.AddRoute(testutil.StoreRoute(1, ""))

	signed := structured(t, "inbox@acme.example", nil)
	signed.Header.Set("X-Mailgate-Signature", Sign("s3cret", signed.Body))
	result, err := f.ingest(t, signed)
	require.NoError(t, err)
	assert.True(t, result.Stored)

	mutated := structured(t, "inbox@acme.example", nil)
	mutated.Header.Set("X-Mailgate-Signature", Sign("s3cret", mutated.Body))
	mutated.Body[len(mutated.Body)-2] ^= 0x01
	_, err = f.ingest(t, mutated)
	assert.True(t, errors.Is(err, mailgate_errors.ErrInvalidSignature))
	assert.Equal(t, http.StatusUnauthorized, mailgate_errors.HTTPStatus(err))

	unsigned := structured(t, "inbox@acme.example", nil)
	_, err = f.ingest(t, unsigned)
	assert.True(t, errors.Is(err, mailgate_errors.ErrInvalidSignature))

	assert.Len(t, f.store.Messages(), 1)
}

func TestVerifySignature_Formats(t *testing.T) {
	body := []byte("payload")
	valid := Sign("k", body)

	assert.NoError(t, VerifySignature("k", valid, body))
	assert.NoError(t, VerifySignature("k", "SHA256="+valid[len("sha256="):], body))
	assert.Error(t, VerifySignature("k", "sha1="+valid[len("sha256="):], body))
	assert.Error(t, VerifySignature("k", "sha256=not-hex", body))
	assert.Error(t, VerifySignature("k", valid[len("sha256="):], body))
	assert.Error(t, VerifySignature("other", valid, body))
}

func TestIngest_UnknownDomainPersistsNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddRoute(testutil.StoreRoute(1, "*"))

	_, err := f.ingest(t, structured(t, "someone@unregistered.example", nil))

	assert.True(t, errors.Is(err, mailgate_errors.ErrUnknownDomain))
	assert.Equal(t, http.StatusNotFound, mailgate_errors.HTTPStatus(err))
	assert.Empty(t, f.store.Messages())
	assert.Zero(t, f.blobCount(t))
}

func TestIngest_NoStoreRouteIsNotRetained(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddRoute(testutil.ForwardRoute(5, "*", "elsewhere@example.net"))

	result, err := f.ingest(t, structured(t, "inbox@acme.example", nil))

	require.NoError(t, err)
	assert.False(t, result.Stored)
	assert.Nil(t, result.Message)
	assert.Equal(t, []uint64{5}, result.MatchedRouteIDs)
	assert.Empty(t, f.store.Messages())
	assert.Zero(t, f.blobCount(t))
	assert.Empty(t, f.dispatcher.Handoffs())
}

func TestIngest_RecordFailureRemovesBlob(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddRoute(testutil.StoreRoute(1, "*"))
	f.store.CreateErr = testutil.ErrInjected

	_, err := f.ingest(t, structured(t, "inbox@acme.example", nil))

	assert.True(t, errors.Is(err, mailgate_errors.ErrStorageFailure))
	assert.Equal(t, http.StatusInternalServerError, mailgate_errors.HTTPStatus(err))
	assert.Zero(t, f.blobCount(t))
	assert.Empty(t, f.dispatcher.Handoffs())
}

func TestIngest_UploadFailure(t *testing.T) {
	root := t.TempDir()
	local, err := storage.NewLocalStorageService(root)
	require.NoError(t, err)
	f := newFixtureWithStorage(t, nil, root, &testutil.FailingStorage{Backend: local, UploadErr: testutil.ErrInjected})
	f.store.AddRoute(testutil.StoreRoute(1, "*"))

	_, err = f.ingest(t, structured(t, "inbox@acme.example", nil))

	assert.True(t, errors.Is(err, mailgate_errors.ErrStorageFailure))
	assert.Empty(t, f.store.Messages())
}

func TestIngest_RawMimeWithSidecarHeaders(t *testing.T) {
	f := newFixture(t, nil)
	route := testutil.StoreRoute(1, "*")
	route.TLSRequired = true
	f.store.AddRoute(route)

	header := http.Header{}
	header.Set("X-Rcpt-To", "inbox@acme.example, second@acme.example")
	header.Set("X-Mail-From", "bounce@sender.example")
	header.Set("X-TLS", "yes")
	header.Set("X-Spam-Score", "not-a-number")
	raw := testutil.RawMime("alice@sender.example", "inbox@acme.example", "Raw path", "hello")

	result, err := f.ingest(t, Submission{ContentType: "message/rfc822", Header: header, Body: raw})

	require.NoError(t, err)
	require.True(t, result.Stored)
	assert.Equal(t, []string{"inbox@acme.example", "second@acme.example"}, []string(result.Message.Recipients))
	require.NotNil(t, result.Message.TLS)
	assert.True(t, *result.Message.TLS)
	assert.Nil(t, result.Message.SpamScore)
	assert.Equal(t, len(raw), result.Message.RawSize)
	require.NotNil(t, result.Message.DKIMResult)
	assert.Equal(t, "pass", *result.Message.DKIMResult)
}

func TestIngest_RejectsUnsupportedMediaAndBadEnvelopes(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ingest(t, Submission{ContentType: "multipart/form-data; boundary=x", Header: http.Header{}, Body: []byte("x")})
	assert.Equal(t, http.StatusUnsupportedMediaType, mailgate_errors.HTTPStatus(err))

	_, err = f.ingest(t, Submission{ContentType: "application/json", Header: http.Header{}, Body: []byte("{")})
	assert.Equal(t, http.StatusBadRequest, mailgate_errors.HTTPStatus(err))

	_, err = f.ingest(t, structured(t, "inbox@acme.example", func(r *dto.InboundEnvelopeRequest) { r.RcptTos = nil }))
	assert.Equal(t, http.StatusBadRequest, mailgate_errors.HTTPStatus(err))
}

func TestIngest_DispatchFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatcher.Err = testutil.ErrInjected
	f.store.AddRoute(testutil.StoreRoute(1, "*", "ops@acme.example"))

	result, err := f.ingest(t, structured(t, "inbox@acme.example", nil))

	require.NoError(t, err)
	assert.True(t, result.Stored)
	assert.Len(t, f.store.Messages(), 1)
}

func TestIngest_UnparseableMimeKeepsContentOutOfLogs(t *testing.T) {
	f := newFixture(t, nil)
	log, logs := testutil.ObservedLogger()
	f.service = NewService(&config.IngestConfig{SignatureHeader: "X-Mailgate-Signature", MaxBodyBytes: 1 << 20},
		log, f.store.Repositories(), f.storage, mime_extractor.NewEnmimeExtractor(), f.dispatcher)

	header := http.Header{}
	header.Set("X-Rcpt-To", "inbox@acme.example")
	body := []byte("Wire $25000 to IBAN DE89370400440532013000 today\r\n\r\nsecret")

	_, err := f.service.Ingest(context.Background(), tracing.NewRequestTrace("trace-test02", log),
		Submission{ContentType: "message/rfc822", Header: header, Body: body})
	f.service.Wait()

	require.True(t, errors.Is(err, mailgate_errors.ErrInvalidEnvelope))
	assert.NotContains(t, err.Error(), "IBAN")

	failed := logs.FilterMessage("inbound stage failed").AllUntimed()
	require.Len(t, failed, 1)
	assert.Equal(t, "extract", failed[0].ContextMap()["stage"])
	assert.Equal(t, "mime parse failed", failed[0].ContextMap()["reason"])

	text := testutil.LoggedText(logs)
	for _, fragment := range []string{"Wire", "IBAN", "DE89370400440532013000", "secret"} {
		assert.NotContains(t, text, fragment)
	}
	assert.Equal(t, 0, f.blobCount(t))
}

func TestIngest_ReceivedAtFormats(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddRoute(testutil.StoreRoute(1, "*"))
	raw := testutil.RawMime("alice@sender.example", "inbox@acme.example", "Dated", "hello")
	submit := func(receivedAt string) (*Result, error) {
		header := http.Header{}
		header.Set("X-Rcpt-To", "inbox@acme.example")
		header.Set("X-Received-At", receivedAt)
		return f.ingest(t, Submission{ContentType: "message/rfc822", Header: header, Body: raw})
	}

	result, err := submit("2025-01-02T03:04:05")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Equal(result.Message.ReceivedAt))

	result, err = submit("2025-01-02T03:04:05+0200")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 1, 4, 5, 0, time.UTC).Equal(result.Message.ReceivedAt))

	log, logs := testutil.ObservedLogger()
	header := http.Header{}
	header.Set("X-Rcpt-To", "inbox@acme.example")
	header.Set("X-Received-At", "last tuesday")
	before := time.Now().UTC()
	result, err = f.service.Ingest(context.Background(), tracing.NewRequestTrace("trace-test03", log),
		Submission{ContentType: "message/rfc822", Header: header, Body: raw})
	f.service.Wait()
	require.NoError(t, err)
	assert.False(t, result.Message.ReceivedAt.Before(before.Truncate(time.Second)))

	warned := logs.FilterFieldKey("ignored").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "decode", warned[0].ContextMap()["stage"])
	assert.Equal(t, []interface{}{"received_at"}, warned[0].ContextMap()["ignored"])
}
