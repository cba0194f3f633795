// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

// Code pairs an HTTP status with the envelope's error label and default message.
type Code struct {
	Status int
	Error  string
	Msg    string
}

var (
	// 401
	Unauthorized = failed(401, "Unauthorized", "Authentication required.")

	// 403
	Forbidden              = failed(403, "Forbidden", "Access denied.")
	PermissionUnverifiable = failed(403, "Forbidden", "Unable to verify permissions.")

	// 400
	BadRequest                    = failed(400, "Bad Request", "Invalid request.")
	RequestParameterParsingFailed = failed(400, "Bad Request", "Request parameter parsing failed.")

	NotFound = failed(404, "Not Found", "Resource not found.")
	Conflict = failed(409, "Conflict", "Resource conflict.")

	InternalError = failed(500, "Internal Server Error", "Internal error, please contact the administrator.")
)

func failed(status int, label, msg string) *Code {
	return &Code{
		Status: status,
		Error:  label,
		Msg:    msg,
	}
}
