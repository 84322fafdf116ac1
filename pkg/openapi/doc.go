// Package openapi describes forms as OpenAPI 3 documents and back.
//
// Export publishes the public endpoints of one form with the submission
// payload expressed as a JSON schema, so external tooling can generate
// clients against it. Import goes the other way: it reads the JSON request
// body of an operation in any OpenAPI document and derives a form draft from
// its properties. Both directions are built on kin-openapi.
package openapi
