// Package profile checks elements against declarative allow-lists layered on
// top of a formal schema: which children may occur and how often, and which
// attributes are required, optional or profiled out.
//
// All names are local names. Namespaces never take part in matching, so one
// profile serves every schema revision of a document type.
package profile
