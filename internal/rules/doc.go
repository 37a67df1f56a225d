// Package rules provides ready-made engine rules and builds rules from
// compiled form specs.
//
// Every rule except Required treats an empty value as valid, so emptiness is
// reported by exactly one rule. Lengths are counted in runes after NFC
// normalisation, matching what a user perceives as characters.
package rules
