package strava

// ResponseTransform rewrites a successful response body before decoding.
// Transforms run in registration order; any error aborts the chain and fails
// the request.
type ResponseTransform func(body []byte) ([]byte, error)

// applyTransforms runs the configured transform pipeline over a response
// body.
func applyTransforms(body []byte, transforms []ResponseTransform) ([]byte, error) {
	for _, t := range transforms {
		var err error
		body, err = t(body)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}
