package middlewares

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/server/common"
)

const CookieName = "jwt"

type SessionClaims struct {
	UserID int64 `json:"user"`
	jwt.RegisteredClaims
}

// SignSession issues the cookie value for a logged-in user.
func SignSession(userID int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{UserID: userID})
	return token.SignedString([]byte(conf.Conf.JwtSecret))
}

func parseSession(tokenStr string) (int64, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(conf.Conf.JwtSecret), nil
	})
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Auth resolves the session cookie into a *model.User stored in the request
// context under conf.UserKey.
func Auth(c *gin.Context) {
	tokenStr, err := c.Cookie(CookieName)
	if err != nil {
		common.ErrorStrResp(c, "authorization error", 401)
		return
	}
	userID, err := parseSession(tokenStr)
	if err != nil {
		common.ErrorStrResp(c, "authorization error", 401)
		return
	}
	user, err := db.GetUserByID(userID)
	if err != nil {
		common.ErrorStrResp(c, "authorization error", 401)
		return
	}
	ctx := context.WithValue(c.Request.Context(), conf.UserKey, user)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
