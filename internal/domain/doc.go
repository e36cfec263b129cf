// Package domain models verified development projects, agent draft listings,
// and the duplicate-check verdicts that connect them.
//
// # Data Source
//
// Catalog entries originate from a third-party inventory feed of centrally
// verified development projects. The feed is fetched over HTTP by the feed
// adapter and cached as an immutable snapshot by package catalog; nothing in
// this module ever mutates an entry after it has been decoded.
//
// # Draft Conventions
//
// Drafts arrive from an interactive listing form on a debounce timer, so any
// field may be missing or half-typed:
//
//	{"title": "Marina Heights 2BR", "community": "Dubai Marina",
//	 "latitude": "25.08", "longitude": 55.14, "price": 1850000}
//
// Numeric fields are accepted as JSON numbers or numeric strings. A value that
// does not parse, is not finite, or is out of range is treated as absent
// rather than failing the request. Latitude and longitude are only usable as a
// pair, and the form's default (0, 0) counts as "no coordinate".
//
// Prices must be positive; zero and negative values are absent.
//
// # Text Normalization
//
// Names, developers and locality text are compared after [Normalize]:
// diacritics are stripped, case is folded, every run of non-alphanumeric
// characters becomes a single space, and the result is trimmed. So
// "Émaar  Properties, PJSC" and "emaar properties pjsc" normalize equally.
//
// # Verdict Levels
//
// A draft's verdict is one of three levels derived solely from the best
// candidate's 0–100 score:
//
//	strong: score ≥ 75   submission is gated behind an explicit override
//	soft:   50 ≤ score < 75   surfaced as a warning
//	none:   score < 50
//
// A match is attached to the verdict only when the level is soft or strong.
package domain
