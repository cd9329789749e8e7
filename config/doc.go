// Package config loads the ontosim configuration.
//
// A configuration is built in layers: built-in defaults, then each file given
// to the Loader (JSON or YAML, chosen by extension), then environment
// overrides. Files only override the keys they set; arrays replace the
// default array as a whole. Every file is checked against an embedded JSON
// schema before it is merged, and Config.Validate checks the semantic rules
// the schema cannot express.
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.EnableValidation(true)
//	cfg, err := loader.LoadFile("ontosim.yaml")
//	if err != nil {
//	    return err
//	}
//	o, err := overlay.New(ctx, cfg.Overlay(), deps)
//
// # Example File
//
//	ontology:
//	  path: /data/mesh/desc2014.xml
//	  prefix: http://usi/
//	sanitizer:
//	  cycle_edges:
//	    - {child: D009014, parent: D004989}
//	    - {child: D020155, parent: D006885}
//	  require_dag: true
//	similarity:
//	  measure: lin
//	  aggregation: bma
//	  cache_size: 100000
//	http:
//	  enabled: true
//	  port: 8080
//	nats:
//	  enabled: true
//	  urls: [nats://localhost:4222]
//	  subject_prefix: ontology.query
//	  workers: 8
//	  queue_size: 256
//
// # Environment Overrides
//
//	ONTOSIM_ONTOLOGY_PATH    ontology.path
//	ONTOSIM_ONTOLOGY_PREFIX  ontology.prefix
//	ONTOSIM_MEASURE          similarity.measure
//	ONTOSIM_AGGREGATION      similarity.aggregation
//	ONTOSIM_NATS_URLS        nats.urls (comma separated)
//	ONTOSIM_HTTP_PORT        http.port
package config
