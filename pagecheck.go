// Package pagecheck provides a smoke-testing crawler for built documentation
// sites. It walks a site in a headless browser, classifies the runtime errors
// each page produces, and reports them grouped by category.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, bloom/).
package pagecheck
