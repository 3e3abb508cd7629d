package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/internal/notify"
	"github.com/JaimeStill/tally/internal/receipts"
	"github.com/JaimeStill/tally/internal/reminders"
	"github.com/JaimeStill/tally/internal/sessions"
)

var errBoom = errors.New("boom")

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testImage(tag string) *Image {
	return &Image{Data: []byte("jpeg:" + tag), ContentType: "image/jpeg"}
}

type fakeClassifier struct {
	fn func(ctx context.Context, img Image) (Classification, error)
}

func (f *fakeClassifier) Classify(ctx context.Context, img Image) (Classification, error) {
	return f.fn(ctx, img)
}

// labels returns a classifier answering with each label in turn, repeating the last.
func labels(seq ...Classification) *fakeClassifier {
	var mu sync.Mutex
	i := 0
	return &fakeClassifier{fn: func(context.Context, Image) (Classification, error) {
		mu.Lock()
		defer mu.Unlock()
		c := seq[min(i, len(seq)-1)]
		i++
		return c, nil
	}}
}

type fakeExtractor struct {
	fn func(ctx context.Context, img Image, c Classification) (ExtractedFields, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, img Image, c Classification) (ExtractedFields, error) {
	if f.fn != nil {
		return f.fn(ctx, img, c)
	}
	return sampleFields(), nil
}

func sampleFields() ExtractedFields {
	return ExtractedFields{
		TotalAmount:   84.5,
		DueDate:       "2099-03-10",
		BillingPeriod: "2099-02",
		ProviderName:  "Sedapal",
	}
}

type fakeUploader struct {
	mu        sync.Mutex
	fn        func(ctx context.Context, img Image, folder, name string) (string, error)
	uploads   []string
	discarded []string
}

func (f *fakeUploader) Upload(ctx context.Context, img Image, folder, name string, tags map[string]string) (string, error) {
	if f.fn != nil {
		if ref, err := f.fn(ctx, img, folder, name); err != nil || ref != "" {
			return ref, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ref := "http://blob.test/" + folder + "/" + name + ".jpg"
	f.uploads = append(f.uploads, ref)
	return ref, nil
}

func (f *fakeUploader) Discard(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = append(f.discarded, ref)
	return nil
}

type fakeRepo struct {
	mu       sync.Mutex
	err      error
	byImage  map[string]receipts.Receipt
	notified []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byImage: make(map[string]receipts.Receipt)}
}

func (f *fakeRepo) Save(ctx context.Context, cmd receipts.CreateCommand) (*receipts.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if rec, ok := f.byImage[cmd.ImageURL]; ok {
		return &rec, nil
	}

	rec := receipts.Receipt{
		ID:          uuid.New(),
		PhoneNumber: cmd.PhoneNumber,
		ServiceType: cmd.ServiceType,
		IsValid:     cmd.IsValid,
		TotalAmount: cmd.TotalAmount,
		DueDate:     cmd.DueDate,
		ImageURL:    cmd.ImageURL,
	}
	f.byImage[cmd.ImageURL] = rec
	return &rec, nil
}

func (f *fakeRepo) MarkNotified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, id)
	return nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byImage)
}

type fakeNotifier struct {
	mu       sync.Mutex
	err      error
	messages []string
}

func (f *fakeNotifier) Send(ctx context.Context, to, message string) (notify.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, message)
	if f.err != nil {
		return notify.Receipt{}, f.err
	}
	return notify.Receipt{MessageID: "m", Destination: to, SentAt: time.Now()}, nil
}

func (f *fakeNotifier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeNotifier) containing(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

type fakeScheduler struct {
	mu       sync.Mutex
	requests []reminders.Request
}

func (f *fakeScheduler) Schedule(ctx context.Context, req reminders.Request) ([]reminders.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return []reminders.Booking{{Kind: reminders.KindDueDate, UID: "b1", Start: req.DueDate}}, nil
}

type harness struct {
	engine     *Engine
	store      sessions.Store
	classifier *fakeClassifier
	extractor  *fakeExtractor
	uploader   *fakeUploader
	repo       *fakeRepo
	notifier   *fakeNotifier
	scheduler  *fakeScheduler
}

type harnessOption func(h *harness, rt *Runtime, opts *Options)

func withStore(store sessions.Store) harnessOption {
	return func(h *harness, _ *Runtime, _ *Options) { h.store = store }
}

func withOptions(o Options) harnessOption {
	return func(_ *harness, _ *Runtime, opts *Options) { *opts = o }
}

func withCallTimeout(d time.Duration) harnessOption {
	return func(_ *harness, rt *Runtime, _ *Options) { rt.CallTimeout = d }
}

func newHarness(t *testing.T, classifier *fakeClassifier, options ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		store:      sessions.NewMemory(),
		classifier: classifier,
		extractor:  &fakeExtractor{},
		uploader:   &fakeUploader{},
		repo:       newFakeRepo(),
		notifier:   &fakeNotifier{},
		scheduler:  &fakeScheduler{},
	}

	rt := &Runtime{
		Classifier:   h.classifier,
		Extractor:    h.extractor,
		Uploader:     h.uploader,
		Receipts:     h.repo,
		Notifier:     h.notifier,
		Reminders:    h.scheduler,
		Logger:       discard(),
		CallTimeout:  time.Second,
		UploadFolder: "receipts",
	}
	opts := Options{AttemptLimit: 3}

	for _, o := range options {
		o(h, rt, &opts)
	}

	e, err := NewEngine(h.store, rt, opts)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	h.engine = e
	return h
}
