// Package domain models streamflow readings from Quebec hydrological providers
// and the alert rules applied to them.
//
// # Data Sources
//
// Two providers publish current and forecast streamflow (débit, m³/s) per station:
//
//	CEHQ       Centre d'expertise hydrique du Québec, one JSON document per
//	           station, six-digit zero-padded station number.
//	Vigilance  Ministère de la Sécurité publique "Vigilance" API, one JSON
//	           array per station, timestamps naive UTC.
//
// # Lead Times
//
// Both providers publish one forecast sample per calendar day at a fixed local
// hour (09:00 for CEHQ, 07:00 for Vigilance). A forecast at lead time L is the
// sample whose local timestamp equals "date(now + L) at anchor hour". Matching
// is exact string equality on "2006-01-02 15:04:05"; see [ExactLookup].
//
//	Lead times: 24h, 48h, 72h (fixed, see [LeadTimes]).
//
// # Missing Values
//
// Zero is the missing sentinel. A reading that could not be fetched is four
// zeros; a forecast sample that is absent for one lead time is zero in that
// slot only. A zero is therefore always flagged by [Evaluate].
//
// # Thresholds
//
// Each river carries a minimum and a maximum alert threshold. A threshold of
// exactly zero means "not configured" and disables that side of the check:
//
//	flag if min != 0 and v <= min
//	flag if max != 0 and v >= max
//	flag if v == 0
package domain
