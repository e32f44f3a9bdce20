// Package extract implements the address selection pipeline.
//
// Raw text is scanned for addresses (Detect), collapsed case-insensitively in
// first-seen order (Dedupe), bucketed by domain (Group) and finally capped per
// domain with keyword matches taking precedence (Select). Run chains the four
// steps. Every call works on its own data; nothing is shared between runs
// except the compiled detection pattern.
package extract
