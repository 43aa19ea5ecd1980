// Package models defines the data structures that map to database tables.
// GORM uses these structs to generate SQL and to map rows back to Go values; the
// struct tags spell out column names, keys and indexes explicitly so the sqlite and
// postgres migrations in internal/database stay the single source of truth for DDL.
//
// The data model is a personal golf log:
//   - Tournaments group Rounds (by value of Round.TournamentID, not by a foreign key)
//   - A Round owns exactly 18 Holes, created together with it
//   - Media (photos/videos) optionally point at a Round and a hole number
//   - Contacts are independent (share targets for the excluded SMS layer)
//   - Preferences is a small key/value table backing the session store
package models

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HolesPerRound is the fixed number of holes every round is seeded with.
const HolesPerRound = 18

// StandardPars is the par assigned to holes 1..18 when a round is created.
// The golfer can override any of them while scoring.
var StandardPars = [HolesPerRound]int{4, 4, 3, 5, 4, 4, 4, 3, 5, 4, 4, 3, 5, 4, 4, 4, 3, 5}

// MediaType distinguishes captured photos from videos.
type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	return t == MediaTypePhoto || t == MediaTypeVideo
}

// Tournament is a named series of rounds at one course over a date range.
type Tournament struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	CourseName string    `gorm:"not null" json:"courseName"`
	StartDate  time.Time `gorm:"not null" json:"startDate"`
	EndDate    time.Time `gorm:"not null" json:"endDate"`
	Seq        int64     `gorm:"not null;index" json:"seq"` // insertion order, used as a sort tiebreak
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Tournament) TableName() string { return "tournaments" }

// BeforeSave stores every timestamp in UTC so date ordering compares instants.
func (t *Tournament) BeforeSave(*gorm.DB) error {
	t.StartDate = t.StartDate.UTC()
	t.EndDate = t.EndDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return nil
}

// BeforeCreate assigns an id and insertion sequence unless the row already carries them
// (imports keep the original values).
func (t *Tournament) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Seq == 0 {
		t.Seq = NextSeq()
	}
	return nil
}

// Round is one 18-hole round. The four Total*/FairwaysHit/GreensInRegulation fields are
// derived from the holes and only ever written by the round service.
//
// TournamentName is a point-in-time copy of the tournament's name when the round was
// created; renaming the tournament later does not change it.
type Round struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CourseName         string    `gorm:"not null" json:"courseName"`
	Date               time.Time `gorm:"not null" json:"date"`
	IsFinished         bool      `gorm:"not null;default:false" json:"isFinished"`
	TournamentID       *string   `gorm:"type:varchar(36);index" json:"tournamentId,omitempty"`
	TournamentName     *string   `json:"tournamentName,omitempty"`
	TotalScore         *int      `json:"totalScore,omitempty"`
	TotalPutts         *int      `json:"totalPutts,omitempty"`
	FairwaysHit        *int      `json:"fairwaysHit,omitempty"`
	GreensInRegulation *int      `json:"greensInRegulation,omitempty"`
	AIAnalysis         *string   `gorm:"column:ai_analysis" json:"aiAnalysis,omitempty"`
	Seq                int64     `gorm:"not null;index" json:"seq"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	Holes []Hole `gorm:"foreignKey:RoundID" json:"holes,omitempty"`
}

func (Round) TableName() string { return "rounds" }

// BeforeSave stores the date in UTC. sqlite keeps times as text, so rows written with
// mixed offsets would not sort chronologically.
func (r *Round) BeforeSave(*gorm.DB) error {
	r.Date = r.Date.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return nil
}

func (r *Round) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Seq == 0 {
		r.Seq = NextSeq()
	}
	return nil
}

// Hole is the per-hole record of a round. Strokes == 0 means the hole has not been played;
// unplayed holes are excluded from every aggregate regardless of other populated fields.
//
// ShotData is an opaque shot-by-shot log owned by the shot-tracking UI. It is stored and
// returned byte-for-byte and never interpreted here.
type Hole struct {
	RoundID           string  `gorm:"type:varchar(36);primaryKey" json:"roundId"`
	HoleNumber        int     `gorm:"primaryKey;autoIncrement:false" json:"holeNumber"`
	Par               int     `gorm:"not null" json:"par"`
	Strokes           int     `gorm:"not null;default:0" json:"strokes"`
	FairwayHit        *bool   `json:"fairwayHit,omitempty"`
	GreenInRegulation *bool   `json:"greenInRegulation,omitempty"`
	Putts             *int    `json:"putts,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	ShotData          *string `gorm:"column:shot_data" json:"shotData,omitempty"`
}

func (Hole) TableName() string { return "holes" }

// Played reports whether strokes have been recorded for the hole.
func (h Hole) Played() bool { return h.Strokes > 0 }

// ScoreToPar is strokes minus par. Only meaningful for played holes.
func (h Hole) ScoreToPar() int { return h.Strokes - h.Par }

// Media is a photo or video captured during a round. RoundID is a weak reference;
// deleting the round deletes its media.
type Media struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	URI         string    `gorm:"column:uri;not null" json:"uri"`
	Type        MediaType `gorm:"type:varchar(16);not null" json:"type"`
	RoundID     *string   `gorm:"type:varchar(36);index" json:"roundId,omitempty"`
	HoleNumber  *int      `json:"holeNumber,omitempty"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
	Description *string   `json:"description,omitempty"`
}

func (Media) TableName() string { return "media" }

func (m *Media) BeforeSave(*gorm.DB) error {
	m.Timestamp = m.Timestamp.UTC()
	return nil
}

func (m *Media) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Contact is someone the golfer shares round results with.
type Contact struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	PhoneNumber string `gorm:"not null" json:"phoneNumber"`
	IsActive    bool   `gorm:"not null" json:"isActive"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Preference is one key/value entry of the session preference store.
type Preference struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (Preference) TableName() string { return "preferences" }

var lastSeq atomic.Int64

// NextSeq returns a strictly increasing insertion sequence. It is seeded from the wall
// clock so values keep increasing across process restarts.
func NextSeq() int64 {
	for {
		prev := lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if lastSeq.CompareAndSwap(prev, next) {
			return next
		}
	}
}
