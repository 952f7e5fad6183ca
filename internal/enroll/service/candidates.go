package service

// nanpPrefix is the country calling prefix for North American numbers.
const nanpPrefix = "+1"

// Candidates derives the exact-match variants of an input phone number.
// The raw input is always a candidate. A 12-character number carrying the
// North American prefix also matches without it; a bare 10-digit number also
// matches with the prefix prepended. No fuzzy matching.
func Candidates(phone string) []string {
	candidates := []string{phone}
	switch {
	case len(phone) == 12 && phone[:2] == nanpPrefix:
		candidates = append(candidates, phone[2:])
	case len(phone) == 10 && phone[0] != '+':
		candidates = append(candidates, nanpPrefix+phone)
	}
	return candidates
}

// candidateSet builds a membership set for matching stored phones.
func candidateSet(phone string) map[string]struct{} {
	set := make(map[string]struct{}, 2)
	for _, c := range Candidates(phone) {
		set[c] = struct{}{}
	}
	return set
}
