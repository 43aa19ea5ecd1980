package backup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/charbodjc/daddy-caddy/internal/backup"
	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/services"
	"github.com/charbodjc/daddy-caddy/internal/session"
	"github.com/charbodjc/daddy-caddy/internal/store"
	"github.com/charbodjc/daddy-caddy/internal/store/storetest"
)

type noSummary struct{}

func (noSummary) SummarizeRound(context.Context, models.Round, []models.Media) string { return "" }
func (noSummary) SummarizeHole(context.Context, models.Hole, []models.Media) string { return "" }

// seed fills st with a little of everything.
func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	log := storetest.Logger()
	rounds := services.NewRoundService(st, session.New(st), noSummary{}, log)
	tournaments := services.NewTournamentService(st, rounds, log)
	media := services.NewMediaService(st, log)
	contacts := services.NewContactService(st, log)

	day := time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)
	tour, err := tournaments.CreateTournament(ctx, services.NewTournament{Name: "Spring Cup", CourseName: "Links", StartDate: day, EndDate: day.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	r1, err := rounds.CreateRound(ctx, services.NewRound{CourseName: "Links", Date: day, TournamentID: &tour.ID})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	r2, err := rounds.CreateRound(ctx, services.NewRound{CourseName: "Muni", Date: day})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	shots := "{\"shots\":[{\"club\":\"3w\"}],\"raw\":\"\\u00e9\\n\"}  "
	if _, err := rounds.UpdateHole(ctx, r1.ID, 1, models.HolePatch{Strokes: models.Ptr(4), Putts: models.Ptr(2),
		FairwayHit: models.Ptr(false), Notes: models.Ptr("windy"), ShotData: &shots}); err != nil {
		t.Fatalf("UpdateHole: %v", err)
	}
	if err := rounds.FinishRound(ctx, r1.ID); err != nil {
		t.Fatal(err)
	}
	if err := rounds.SaveAnalysis(ctx, r2.ID, "solid front nine"); err != nil {
		t.Fatal(err)
	}
	if _, err := media.AddMedia(ctx, services.NewMedia{URI: "file:///1.jpg", Type: models.MediaTypePhoto, RoundID: &r1.ID, HoleNumber: models.Ptr(1), Timestamp: day}); err != nil {
		t.Fatal(err)
	}
	c, err := contacts.AddContact(ctx, "Pat", "555-0100")
	if err != nil {
		t.Fatal(err)
	}
	if err := contacts.SetContactActive(ctx, c.ID, false); err != nil {
		t.Fatal(err)
	}
}

func canonical(t *testing.T, d *backup.Document) string {
	t.Helper()
	cp := *d
	cp.ExportDate = time.Time{}
	b, err := json.Marshal(cp)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := storetest.New(t)
	seed(t, src)

	doc, err := backup.Export(ctx, src)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Version != backup.Version || len(doc.Rounds) != 2 || len(doc.Tournaments) != 1 ||
		len(doc.Contacts) != 1 || len(doc.Media) != 1 {
		t.Fatalf("unexpected export shape: %d rounds %d tournaments %d contacts %d media",
			len(doc.Rounds), len(doc.Tournaments), len(doc.Contacts), len(doc.Media))
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	read, err := backup.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	dst := storetest.New(t)
	if err := backup.Import(ctx, dst, read); err != nil {
		t.Fatalf("Import: %v", err)
	}
	again, err := backup.Export(ctx, dst)
	if err != nil {
		t.Fatalf("Export after import: %v", err)
	}

	if got, want := canonical(t, again), canonical(t, doc); got != want {
		t.Errorf("round trip changed data\n got: %s\nwant: %s", got, want)
	}
}

func TestImportCollisionLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	seed(t, st)
	doc, err := backup.Export(ctx, st)
	if err != nil {
		t.Fatal(err)
	}

	err = backup.Import(ctx, st, doc)
	if !errors.Is(err, store.ErrIntegrityViolation) {
		t.Fatalf("Import into populated store: %v, want ErrIntegrityViolation", err)
	}
	if n, _ := store.Count[models.Round](ctx, st); n != 2 {
		t.Errorf("%d rounds after failed import, want 2", n)
	}
}

func eighteenHoles() []models.Hole {
	holes := make([]models.Hole, models.HolesPerRound)
	for i := range holes {
		holes[i] = models.Hole{HoleNumber: i + 1, Par: models.StandardPars[i]}
	}
	return holes
}

func TestImportedDatesSortByInstant(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	karachi := time.FixedZone("PKT", 5*60*60)

	// 10:00+05:00 is 05:00Z, an hour before "late" although it reads later as text.
	early := time.Date(2026, 3, 14, 10, 0, 0, 0, karachi)
	late := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	doc := &backup.Document{
		Version: backup.Version,
		Rounds: []models.Round{
			{ID: "early", CourseName: "Links", Date: early, Seq: 1, Holes: eighteenHoles()},
			{ID: "late", CourseName: "Links", Date: late, Seq: 2, Holes: eighteenHoles()},
		},
		Tournaments: []models.Tournament{
			{ID: "t-early", Name: "A", CourseName: "Links", StartDate: early, EndDate: early, Seq: 1},
			{ID: "t-late", Name: "B", CourseName: "Links", StartDate: late, EndDate: late, Seq: 2},
		},
	}
	if err := backup.Import(ctx, st, doc); err != nil {
		t.Fatalf("Import: %v", err)
	}

	log := storetest.Logger()
	rounds := services.NewRoundService(st, session.New(st), noSummary{}, log)
	list, err := rounds.LoadAllRounds(ctx)
	if err != nil {
		t.Fatalf("LoadAllRounds: %v", err)
	}
	if len(list) != 2 || list[0].ID != "late" {
		t.Fatalf("rounds out of order: %v", roundIDs(list))
	}
	if !list[1].Date.Equal(early) {
		t.Errorf("early round date = %v, want %v", list[1].Date, early)
	}

	tours, err := services.NewTournamentService(st, rounds, log).LoadTournaments(ctx)
	if err != nil {
		t.Fatalf("LoadTournaments: %v", err)
	}
	if len(tours) != 2 || tours[0].ID != "t-late" {
		t.Errorf("tournaments out of order: first = %s", tours[0].ID)
	}
}

func roundIDs(rounds []models.Round) []string {
	ids := make([]string, len(rounds))
	for i, r := range rounds {
		ids[i] = r.ID
	}
	return ids
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	_, err := backup.Read(strings.NewReader(`{"version":2,"rounds":[]}`))
	if !errors.Is(err, store.ErrValidationFailed) {
		t.Errorf("err = %v, want ErrValidationFailed", err)
	}
	_, err = backup.Read(strings.NewReader(`not json`))
	if !errors.Is(err, store.ErrValidationFailed) {
		t.Errorf("err = %v, want ErrValidationFailed", err)
	}
}

type fakeBucket struct {
	in   *s3.PutObjectInput
	body []byte
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{ETag: aws.String(`"abc123"`)}, nil
}

func TestBucketUpload(t *testing.T) {
	fake := &fakeBucket{}
	u := backup.NewBucketUploaderWithClient(fake, "golf-backups")
	doc := &backup.Document{Version: backup.Version, ExportDate: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}

	res, err := u.Upload(context.Background(), doc)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Key != "backups/daddy-caddy-20260901T120000Z.json" || res.ETag != "abc123" {
		t.Errorf("result = %+v", res)
	}
	if aws.ToString(fake.in.Bucket) != "golf-backups" || aws.ToString(fake.in.ContentType) != "application/json" {
		t.Errorf("put input = %+v", fake.in)
	}
	if _, err := backup.Read(bytes.NewReader(fake.body)); err != nil {
		t.Errorf("uploaded body does not read back: %v", err)
	}
}
