package restfulapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kamari/service/util/json"
)

// JSONSerializer encodes echo responses with json-iterator.
type JSONSerializer struct{}

// Serialize converts an interface into a json and writes it to the response.
func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize reads a JSON from a request body and converts it into an interface.
func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("malformed JSON body: %s", err.Error())).SetInternal(err)
	}
	return nil
}
