package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	applogger "MacroLens/pkg/logger"
)

const stackLimit = 8 << 10

// Recover turns a handler panic into a 500 with the usual error envelope and
// logs the value with a truncated stack.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				stack := make([]byte, stackLimit)
				stack = stack[:runtime.Stack(stack, false)]
				l.Error("panic recovered",
					applogger.String("panic", fmt.Sprint(r)),
					applogger.String("route", c.Path()),
					applogger.String("stack", string(stack)),
				)
				err = c.JSON(http.StatusInternalServerError, echo.Map{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
					"data": []echo.Map{
						{"code": "ERR_INTERNAL", "message": "Something went wrong"},
					},
				})
			}()
			return next(c)
		}
	}
}
