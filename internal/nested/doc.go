// Package nested holds the string-keyed trees that describe import requests
// and their solved bindings.
//
// DeepMerge is right-biased: a later map wins for every key it carries and
// nested mappings are merged rather than replaced. Helpers decode request
// payloads from JSON (numbers preserved as json.Number) or YAML.
package nested
