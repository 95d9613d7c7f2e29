package libcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Client talks to a LibCal deployment the way the seat pages do: the
// availability grid endpoint for slot data, plain page fetches for seat
// discovery and metadata, and form posts for check-in and booking.
type Client struct {
	hc      *http.Client
	baseURL string

	LocationID  int
	GroupID     int
	EquipmentID int
	Zone        int

	// MaxAttempts bounds the grid-fetch retry loop. Sleep is injectable
	// for tests; nil means time.Sleep.
	MaxAttempts int
	Sleep       func(time.Duration)
}

func New(baseURL string) *Client {
	return &Client{
		hc:          &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		LocationID:  1443,
		GroupID:     3634,
		EquipmentID: 10948,
		MaxAttempts: 5,
	}
}

// Slot is one raw grid entry. Start/End are facility wall-clock strings
// in the grid's "YYYY-MM-DD HH:MM:SS" format.
type Slot struct {
	Start     string  `json:"start"`
	End       string  `json:"end"`
	ClassName string  `json:"className"`
	Checksum  *string `json:"checksum"`
}

// SeatMeta is best-effort scraped seat metadata.
type SeatMeta struct {
	Name  *string
	Power *bool
}

// BookingProfile is the requester identity the booking form needs.
type BookingProfile struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	StudentNumber string
}

func (c *Client) SeatURL(seatID int64) string {
	return fmt.Sprintf("%s/seat/%d", c.baseURL, seatID)
}

// FetchSlots posts to the availability grid for one seat and date range.
// Transient source errors (429, 5xx) are retried with bounded exponential
// backoff; this is the only retry policy in the system.
func (c *Client) FetchSlots(ctx context.Context, seatID int64, startDate, endDate string) ([]Slot, error) {
	form := url.Values{
		"lid":       {strconv.Itoa(c.LocationID)},
		"gid":       {strconv.Itoa(c.GroupID)},
		"eid":       {strconv.Itoa(c.EquipmentID)},
		"seat":      {"true"},
		"seatId":    {strconv.FormatInt(seatID, 10)},
		"zone":      {strconv.Itoa(c.Zone)},
		"start":     {startDate},
		"end":       {endDate},
		"pageIndex": {"0"},
		"pageSize":  {"200"},
	}

	var lastStatus int
	for attempt := 0; attempt < c.maxAttempts(); attempt++ {
		status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/spaces/availability/grid",
			"application/x-www-form-urlencoded; charset=UTF-8", []byte(form.Encode()))
		if err != nil {
			return nil, err
		}
		if retryableStatus(status) {
			lastStatus = status
			c.sleep(backoffDelay(attempt))
			continue
		}
		if status >= 400 {
			return nil, fmt.Errorf("grid fetch failed (status=%d)", status)
		}
		var payload struct {
			Slots []Slot `json:"slots"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("grid fetch: bad response: %w", err)
		}
		return payload.Slots, nil
	}
	return nil, fmt.Errorf("grid fetch failed after %d attempts (status=%d)", c.maxAttempts(), lastStatus)
}

// FetchSeatIDs scrapes the seat list page for seat ids. Several patterns
// are tried because the markup varies between LibCal versions.
func (c *Client) FetchSeatIDs(ctx context.Context) ([]int64, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/seats", "", nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("seat list fetch failed (status=%d)", status)
	}

	html := string(body)
	ids := extractIDs(html, seatLinkRe)
	if len(ids) == 0 {
		ids = extractIDs(html, dataAttrRe)
	}
	if len(ids) == 0 {
		ids = extractIDs(html, seatIDJSONRe)
	}

	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// FetchSeatMeta scrapes one seat page for its name and power flag.
func (c *Client) FetchSeatMeta(ctx context.Context, seatID int64) (SeatMeta, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.SeatURL(seatID), "", nil)
	if err != nil {
		return SeatMeta{}, err
	}
	if status >= 400 {
		return SeatMeta{}, fmt.Errorf("seat page fetch failed (status=%d)", status)
	}

	html := string(body)
	meta := SeatMeta{Name: seatNameFromHTML(html)}
	if strings.Contains(strings.ToLower(html), "power available") {
		t := true
		meta.Power = &t
	}
	return meta, nil
}

// PerformCheckin submits a check-in code.
func (c *Client) PerformCheckin(ctx context.Context, code string) error {
	form := url.Values{"code": {code}}
	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/r/checkin",
		"application/x-www-form-urlencoded; charset=UTF-8", []byte(form.Encode()))
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("checkin failed (status=%d)", status)
	}
	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "not found") {
		return fmt.Errorf("checkin rejected for code %q", code)
	}
	return nil
}

// PerformBooking submits the booking form for a seat and interval.
// Best effort: LibCal's flow is form-driven and the confirmation text is
// the only signal of success.
func (c *Client) PerformBooking(ctx context.Context, seatID int64, start, end time.Time, p BookingProfile) (string, error) {
	form := url.Values{
		"seatId": {strconv.FormatInt(seatID, 10)},
		"lid":    {strconv.Itoa(c.LocationID)},
		"gid":    {strconv.Itoa(c.GroupID)},
		"start":  {start.Format(GridTimeLayout)},
		"end":    {end.Format(GridTimeLayout)},
		"fname":  {p.FirstName},
		"lname":  {p.LastName},
		"email":  {p.Email},
		"q2555":  {p.Phone},
		"q2556":  {p.StudentNumber},
	}
	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/spaces/availability/booking/add",
		"application/x-www-form-urlencoded; charset=UTF-8", []byte(form.Encode()))
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", fmt.Errorf("booking failed (status=%d)", status)
	}
	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "confirmed") || strings.Contains(lower, "success") || strings.Contains(lower, "reservation") {
		return fmt.Sprintf("Booked seat %d successfully.", seatID), nil
	}
	return fmt.Sprintf("Submitted booking for seat %d, but no clear confirmation was found.", seatID), nil
}

func (c *Client) do(ctx context.Context, method, rawURL, contentType string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; seat-availability-fetch/1.0)")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/seats")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}

func (c *Client) maxAttempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

func (c *Client) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoffDelay grows 1.5x per attempt, capped at one minute.
func backoffDelay(attempt int) time.Duration {
	d := time.Second
	for i := 0; i < attempt; i++ {
		d = d * 3 / 2
		if d >= time.Minute {
			return time.Minute
		}
	}
	return d
}
