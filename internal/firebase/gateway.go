// Package firebase stores seating plans in the Firebase Realtime Database.
//
// Node layout, rooted at the owner (venue) id:
//
//	<owner>/seats/<id>                         {id, x, y}
//	<owner>/texts/<id>                         {id, x, y, value, width, height}
//	<owner>/seatType                           "STANDARD" | "VIP" | "ACCESSIBLE"
//	<owner>/reservations/<date>/<time>/<id>    {id, createdBy, people, seats, createdAt}
package firebase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Node is the subset of a database reference the gateway uses.
type Node interface {
	Get(ctx context.Context, v interface{}) error
	Set(ctx context.Context, v interface{}) error
	Delete(ctx context.Context) error
	// Transaction calls fn with a decoder for the current value and writes
	// the value fn returns.  An error from fn aborts the write.
	Transaction(ctx context.Context, fn func(decode func(v interface{}) error) (interface{}, error)) error
}

// Database resolves slash-separated paths to nodes.
type Database interface {
	Node(path string) Node
}

type seatRecord struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

type textRecord struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Value  string `json:"value"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

type reservationRecord struct {
	ID        string   `json:"id"`
	CreatedBy string   `json:"createdBy"`
	People    int      `json:"people"`
	Seats     []string `json:"seats"`
	CreatedAt int64    `json:"createdAt"` // unix millis
}

// Gateway implements the persistence contract on a Database.
type Gateway struct {
	db Database
}

// NewGateway wraps an already opened Database.
func NewGateway(d Database) *Gateway {
	if d == nil {
		panic("nil firebase database")
	}
	return &Gateway{db: d}
}

// Open initialises the Firebase app for databaseURL.  An empty
// credentialsFile falls back to application default credentials.
func Open(ctx context.Context, databaseURL, credentialsFile string) (*Gateway, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := fb.NewApp(ctx, &fb.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: database client: %w", err)
	}
	return NewGateway(rtdb{client}), nil
}

func (g *Gateway) FetchLayout(ctx context.Context, ownerID string) (model.Layout, error) {
	var seats map[string]seatRecord
	if err := g.db.Node(ownerID+"/seats").Get(ctx, &seats); err != nil {
		return model.Layout{}, fmt.Errorf("firebase: get seats: %w", err)
	}
	var texts map[string]textRecord
	if err := g.db.Node(ownerID+"/texts").Get(ctx, &texts); err != nil {
		return model.Layout{}, fmt.Errorf("firebase: get texts: %w", err)
	}
	var rawType string
	if err := g.db.Node(ownerID+"/seatType").Get(ctx, &rawType); err != nil {
		return model.Layout{}, fmt.Errorf("firebase: get seat type: %w", err)
	}
	seatType, ok := model.ParseSeatType(rawType)
	if !ok {
		seatType = model.DefaultSeatType
	}

	out := model.Layout{Seats: []model.Seat{}, TextLabels: []model.TextLabel{}, SeatType: seatType}
	for key, s := range seats {
		id := s.ID
		if id == "" {
			id = key
		}
		out.Seats = append(out.Seats, model.Seat{ID: id, X: s.X, Y: s.Y, Type: seatType})
	}
	for key, t := range texts {
		id := t.ID
		if id == "" {
			id = key
		}
		out.TextLabels = append(out.TextLabels, model.TextLabel{
			ID: id, X: t.X, Y: t.Y, Value: t.Value, Width: t.Width, Height: t.Height,
		})
	}
	// child order of a node is not stable; sort by grid position
	sort.Slice(out.Seats, func(i, j int) bool {
		return less(out.Seats[i].Y, out.Seats[i].X, out.Seats[i].ID, out.Seats[j].Y, out.Seats[j].X, out.Seats[j].ID)
	})
	sort.Slice(out.TextLabels, func(i, j int) bool {
		a, b := out.TextLabels[i], out.TextLabels[j]
		return less(a.Y, a.X, a.ID, b.Y, b.X, b.ID)
	})
	return out, nil
}

func less(y1, x1 int, id1 string, y2, x2 int, id2 string) bool {
	if y1 != y2 {
		return y1 < y2
	}
	if x1 != x2 {
		return x1 < x2
	}
	return id1 < id2
}

func (g *Gateway) UpsertSeatPosition(ctx context.Context, ownerID string, seat model.Seat) error {
	rec := seatRecord{ID: seat.ID, X: seat.X, Y: seat.Y}
	if err := g.db.Node(ownerID+"/seats/"+seat.ID).Set(ctx, rec); err != nil {
		return fmt.Errorf("firebase: set seat %s: %w", seat.ID, err)
	}
	return nil
}

func (g *Gateway) DeleteSeat(ctx context.Context, ownerID, id string) error {
	if err := g.db.Node(ownerID + "/seats/" + id).Delete(ctx); err != nil {
		return fmt.Errorf("firebase: delete seat %s: %w", id, err)
	}
	return nil
}

func (g *Gateway) UpsertTextLabel(ctx context.Context, ownerID string, label model.TextLabel) error {
	rec := textRecord{ID: label.ID, X: label.X, Y: label.Y, Value: label.Value, Width: label.Width, Height: label.Height}
	if err := g.db.Node(ownerID+"/texts/"+label.ID).Set(ctx, rec); err != nil {
		return fmt.Errorf("firebase: set text %s: %w", label.ID, err)
	}
	return nil
}

func (g *Gateway) DeleteTextLabel(ctx context.Context, ownerID, id string) error {
	if err := g.db.Node(ownerID + "/texts/" + id).Delete(ctx); err != nil {
		return fmt.Errorf("firebase: delete text %s: %w", id, err)
	}
	return nil
}

func (g *Gateway) SetSeatType(ctx context.Context, ownerID string, t model.SeatType) error {
	if err := g.db.Node(ownerID+"/seatType").Set(ctx, string(t)); err != nil {
		return fmt.Errorf("firebase: set seat type: %w", err)
	}
	return nil
}

func slotPath(venueID, date, time string) string {
	return venueID + "/reservations/" + date + "/" + time
}

func (g *Gateway) FetchReservedSeatIDs(ctx context.Context, venueID, date, time string) ([]string, error) {
	var slot map[string]reservationRecord
	if err := g.db.Node(slotPath(venueID, date, time)).Get(ctx, &slot); err != nil {
		return nil, fmt.Errorf("firebase: get reservations: %w", err)
	}
	ids := []string{}
	for _, r := range slot {
		ids = append(ids, r.Seats...)
	}
	sort.Strings(ids)
	return ids, nil
}

// CreateReservation adds the reservation to its slot in a transaction so two
// concurrent writers cannot hold the same seat.
func (g *Gateway) CreateReservation(ctx context.Context, r model.Reservation) error {
	rec := reservationRecord{
		ID:        r.ID,
		CreatedBy: r.CreatedBy,
		People:    r.People,
		Seats:     r.SeatIDs,
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
	err := g.db.Node(slotPath(r.VenueID, r.Date, r.Time)).Transaction(ctx,
		func(decode func(v interface{}) error) (interface{}, error) {
			var slot map[string]reservationRecord
			if err := decode(&slot); err != nil {
				return nil, err
			}
			if slot == nil {
				slot = make(map[string]reservationRecord)
			}
			taken := make(map[string]struct{})
			for _, prev := range slot {
				for _, id := range prev.Seats {
					taken[id] = struct{}{}
				}
			}
			for _, id := range r.SeatIDs {
				if _, ok := taken[id]; ok {
					return nil, model.ErrSeatsTaken
				}
			}
			slot[rec.ID] = rec
			return slot, nil
		})
	if errors.Is(err, model.ErrSeatsTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("firebase: create reservation: %w", err)
	}
	return nil
}

func (g *Gateway) ListReservations(ctx context.Context, venueID, date string) ([]model.Reservation, error) {
	var day map[string]map[string]reservationRecord
	if err := g.db.Node(venueID+"/reservations/"+date).Get(ctx, &day); err != nil {
		return nil, fmt.Errorf("firebase: list reservations: %w", err)
	}
	out := []model.Reservation{}
	for slotTime, slot := range day {
		for _, rec := range slot {
			out = append(out, model.Reservation{
				ID:        rec.ID,
				VenueID:   venueID,
				CreatedBy: rec.CreatedBy,
				Date:      date,
				Time:      slotTime,
				People:    rec.People,
				SeatIDs:   append([]string{}, rec.Seats...),
				CreatedAt: time.UnixMilli(rec.CreatedAt).UTC(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// rtdb adapts *db.Client to Database.
type rtdb struct{ c *db.Client }

func (r rtdb) Node(path string) Node { return ref{r.c.NewRef(path)} }

type ref struct{ r *db.Ref }

func (n ref) Get(ctx context.Context, v interface{}) error { return n.r.Get(ctx, v) }
func (n ref) Set(ctx context.Context, v interface{}) error { return n.r.Set(ctx, v) }
func (n ref) Delete(ctx context.Context) error             { return n.r.Delete(ctx) }

func (n ref) Transaction(ctx context.Context, fn func(decode func(v interface{}) error) (interface{}, error)) error {
	return n.r.Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		return fn(tn.Unmarshal)
	})
}
