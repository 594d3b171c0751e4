// Package ledger keeps an append-only, hash-chained list of crop records in
// memory.
//
// Each record stores the hash of its predecessor, so altering any record
// breaks every link after it. There is no consensus, no peer protocol and
// nothing is persisted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/random"
)

// GenesisHash is the previous_hash of the first record.
const GenesisHash = "0"

// HarvestAfterDays is the default number of days from planting to harvest.
const HarvestAfterDays = 120

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("crop record not found")

// Coordinates locate a field.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SoilData is the soil profile attached to a record.
type SoilData struct {
	PH            float64 `json:"pH"`
	OrganicMatter float64 `json:"organic_matter"`
	Nitrogen      float64 `json:"nitrogen"`
	Phosphorus    float64 `json:"phosphorus"`
	Potassium     float64 `json:"potassium"`
}

// Record is one entry in the ledger.
type Record struct {
	ID               int         `json:"id"`
	TxID             string      `json:"tx_id"`
	Timestamp        time.Time   `json:"timestamp"`
	FarmerID         string      `json:"farmer_id"`
	FarmerName       string      `json:"farmer_name"`
	CropType         string      `json:"crop_type"`
	Variety          string      `json:"variety"`
	Location         string      `json:"location"`
	Coordinates      Coordinates `json:"coordinates"`
	PlantingDate     string      `json:"planting_date"`
	ExpectedHarvest  string      `json:"expected_harvest"`
	AreaHectares     float64     `json:"area_hectares"`
	Certifications   []string    `json:"certifications"`
	PredictedYield   float64     `json:"predicted_yield"`
	FarmingPractices []string    `json:"farming_practices"`
	SoilData         SoilData    `json:"soil_data"`
	PreviousHash     string      `json:"previous_hash"`
	Hash             string      `json:"hash"`
}

func (r Record) clone() Record {
	r.Certifications = slices.Clone(r.Certifications)
	r.FarmingPractices = slices.Clone(r.FarmingPractices)
	return r
}

// Input carries the caller supplied fields of a new record. Nil fields take
// their defaults.
type Input struct {
	FarmerID         *string      `json:"farmer_id"`
	FarmerName       *string      `json:"farmer_name"`
	CropType         *string      `json:"crop_type"`
	Variety          *string      `json:"variety"`
	Location         *string      `json:"location"`
	Coordinates      *Coordinates `json:"coordinates"`
	PlantingDate     *string      `json:"planting_date"`
	ExpectedHarvest  *string      `json:"expected_harvest"`
	AreaHectares     *float64     `json:"area_hectares"`
	Certifications   []string     `json:"certifications"`
	PredictedYield   *float64     `json:"predicted_yield"`
	FarmingPractices []string     `json:"farming_practices"`
}

// Receipt is returned by Create.
type Receipt struct {
	Success            bool   `json:"success"`
	RecordID           int    `json:"record_id"`
	Hash               string `json:"hash"`
	QRCodeData         string `json:"qr_code_data"`
	BlockchainVerified bool   `json:"blockchain_verified"`
	Record             Record `json:"record"`
}

// Sink receives every record after it is appended.
type Sink interface {
	Publish(ctx context.Context, r Record) error
}

// Options configures a Ledger.
type Options struct {
	Logger *zap.Logger
	Sink   Sink
	// Now defaults to time.Now.
	Now func() time.Time
	// NewTxID defaults to uuid.NewString.
	NewTxID func() string
	// Observer is called with the ledger size after each append.
	Observer func(size int)
}

// Ledger is the record chain. Safe for concurrent use.
type Ledger struct {
	rng     random.Source
	log     *zap.Logger
	sink    Sink
	now     func() time.Time
	newTxID func() string
	observe func(int)

	mu      sync.RWMutex
	records []Record
}

// New creates an empty Ledger.
func New(rng random.Source, opts Options) *Ledger {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewTxID == nil {
		opts.NewTxID = uuid.NewString
	}
	return &Ledger{
		rng:     rng,
		log:     opts.Logger,
		sink:    opts.Sink,
		now:     opts.Now,
		newTxID: opts.NewTxID,
		observe: opts.Observer,
	}
}

func str(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// Create fills in defaults for in, chains the record onto the ledger and
// returns its receipt.
func (l *Ledger) Create(ctx context.Context, in Input) (Receipt, error) {
	now := l.now()
	rec := Record{
		TxID:             l.newTxID(),
		Timestamp:        now,
		FarmerID:         str(in.FarmerID, fmt.Sprintf("FARM%d", random.IntRange(l.rng, 1000, 9999))),
		FarmerName:       str(in.FarmerName, "Anonymous Farmer"),
		CropType:         str(in.CropType, "Unknown"),
		Variety:          str(in.Variety, "Standard"),
		Location:         str(in.Location, "Unknown Location"),
		PlantingDate:     str(in.PlantingDate, now.Format(time.DateOnly)),
		ExpectedHarvest:  str(in.ExpectedHarvest, now.AddDate(0, 0, HarvestAfterDays).Format(time.DateOnly)),
		Certifications:   in.Certifications,
		FarmingPractices: in.FarmingPractices,
	}
	if in.Coordinates != nil {
		rec.Coordinates = *in.Coordinates
	}
	if in.AreaHectares != nil {
		rec.AreaHectares = *in.AreaHectares
	} else {
		rec.AreaHectares = random.Uniform(l.rng, 0.5, 5.0)
	}
	if rec.Certifications == nil {
		rec.Certifications = []string{"Organic", "Non-GMO"}
	}
	if in.PredictedYield != nil {
		rec.PredictedYield = *in.PredictedYield
	} else {
		rec.PredictedYield = random.Uniform(l.rng, 2.0, 8.0)
	}
	if rec.FarmingPractices == nil {
		rec.FarmingPractices = []string{"Sustainable Agriculture", "IPM"}
	}
	rec.SoilData = SoilData{
		PH:            random.Uniform(l.rng, 6.0, 7.5),
		OrganicMatter: random.Uniform(l.rng, 2.0, 5.0),
		Nitrogen:      random.Uniform(l.rng, 20, 50),
		Phosphorus:    random.Uniform(l.rng, 15, 35),
		Potassium:     random.Uniform(l.rng, 150, 300),
	}
	rec.Certifications = slices.Clone(rec.Certifications)
	rec.FarmingPractices = slices.Clone(rec.FarmingPractices)

	l.mu.Lock()
	rec.ID = len(l.records) + 1
	rec.PreviousHash = GenesisHash
	if n := len(l.records); n > 0 {
		rec.PreviousHash = l.records[n-1].Hash
	}
	hash, err := Hash(rec)
	if err != nil {
		l.mu.Unlock()
		return Receipt{}, err
	}
	rec.Hash = hash
	l.records = append(l.records, rec)
	size := len(l.records)
	l.mu.Unlock()

	l.log.Info("crop record added",
		zap.Int("id", rec.ID), zap.String("tx_id", rec.TxID), zap.String("hash", rec.Hash))
	if l.observe != nil {
		l.observe(size)
	}
	if l.sink != nil {
		if err := l.sink.Publish(ctx, rec.clone()); err != nil {
			l.log.Warn("record export failed", zap.Int("id", rec.ID), zap.Error(err))
		}
	}

	return Receipt{
		Success:            true,
		RecordID:           rec.ID,
		Hash:               rec.Hash,
		QRCodeData:         QRCodeData(rec),
		BlockchainVerified: true,
		Record:             rec.clone(),
	}, nil
}

// QRCodeData is the compact label printed on produce packaging.
func QRCodeData(r Record) string {
	return fmt.Sprintf("CROP:%d:%s:%s", r.ID, r.Hash[:min(8, len(r.Hash))], r.FarmerID)
}

// Get returns the record with the given id.
func (l *Ledger) Get(id int) (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	// ids are sequential from 1
	if id < 1 || id > len(l.records) {
		return Record{}, ErrNotFound
	}
	return l.records[id-1].clone(), nil
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Records returns a copy of every record in order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.clone()
	}
	return out
}
