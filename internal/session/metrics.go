package session

import "github.com/VictoriaMetrics/metrics"

// Engine counters, registered in the default metrics set. There is no
// export surface built in; embedders can serve metrics.WritePrometheus if
// they want scraping.
var (
	scanPages          = metrics.NewCounter(`rdx_scan_pages_total`)
	scanFailures       = metrics.NewCounter(`rdx_scan_failures_total`)
	keysDiscovered     = metrics.NewCounter(`rdx_keys_discovered_total`)
	typeLookups        = metrics.NewCounter(`rdx_type_lookups_total`)
	typeLookupFailures = metrics.NewCounter(`rdx_type_lookup_failures_total`)
	valueLoads         = metrics.NewCounter(`rdx_value_loads_total`)
	valueLoadFailures  = metrics.NewCounter(`rdx_value_load_failures_total`)
	mutations          = metrics.NewCounter(`rdx_mutations_total`)
	mutationFailures   = metrics.NewCounter(`rdx_mutation_failures_total`)
)
