package models

// ParameterPayload is the body of PUT /cameras/{id}/parameters/{key}.
// Value is either a string or an integer, matching the two native setters.
type ParameterPayload struct {
	Value any `json:"value"`
}

// RescuePayload is the body of POST /rescue
type RescuePayload struct {
	MAC     string `json:"mac"`
	IP      string `json:"ip"`
	Netmask string `json:"netmask"`
	Gateway string `json:"gateway"`
}

// StatusResponse wraps every endpoint that returns a bare native status code
type StatusResponse struct {
	Result struct {
		Status int `json:"status"`
	} `json:"result"`
}
