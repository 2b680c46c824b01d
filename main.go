package main

import (
	"fmt"
	"log"
	"os"

	"mokki-server/routes"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	authed := []iris.Handler{accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware}

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Get("/profile", accessTokenVerifierMiddleware, routes.GetProfile)
	}

	house := app.Party("/api/house", authed...)
	{
		house.Post("/", routes.CreateHouse)
		house.Post("/join", routes.JoinHouse)
		house.Get("/{id:uint}", routes.GetHouse)
		house.Get("/{id:uint}/members", routes.GetHouseMembers)
		house.Patch("/{id:uint}/settings", routes.UpdateHouseSettings)
		house.Get("/{id:uint}/rooms", routes.GetRoomsAndBeds)
		house.Post("/{id:uint}/rooms", routes.CreateRoom)
		house.Get("/{id:uint}/weather", routes.GetHouseWeather)
	}

	room := app.Party("/api/room", authed...)
	{
		room.Post("/{roomID:uint}/beds", routes.CreateBed)
	}

	signupWindow := app.Party("/api/signup-window", authed...)
	{
		signupWindow.Get("/house/{id:uint}/active", routes.GetActiveSignupWindow)
		signupWindow.Get("/house/{id:uint}/next", routes.GetNextScheduledWindow)
		signupWindow.Get("/house/{id:uint}/open-for-dates", routes.IsWindowOpenForDates)
		signupWindow.Post("/", routes.CreateSignupWindow)
		signupWindow.Post("/{id:uint}/open", routes.OpenSignupWindow)
		signupWindow.Post("/{id:uint}/close", routes.CloseSignupWindow)
	}

	bedSignup := app.Party("/api/bed-signup", authed...)
	{
		bedSignup.Post("/", routes.ClaimBed)
		bedSignup.Delete("/{id:uint}", routes.ReleaseBed)
		bedSignup.Patch("/{id:uint}/stay", routes.LinkBedClaimToStay)
		bedSignup.Get("/window/{windowID:uint}/mine", routes.GetUserBedClaim)
		bedSignup.Get("/house/{id:uint}/history", routes.GetBedSignupHistory)
		bedSignup.Get("/house/{id:uint}/stats", routes.GetUserBedStats)
	}

	stay := app.Party("/api/stay", authed...)
	{
		stay.Post("/", routes.CreateStay)
		stay.Patch("/{id:uint}", routes.UpdateStay)
		stay.Delete("/{id:uint}", routes.DeleteStay)
		stay.Get("/house/{id:uint}", routes.GetHouseStays)
		stay.Get("/mine", routes.GetMyStays)
	}

	expense := app.Party("/api/expense", authed...)
	{
		expense.Get("/house/{id:uint}", routes.GetHouseExpenses)
		expense.Post("/", routes.CreateExpense)
		expense.Post("/split/{id:uint}/settle", routes.SettleExpenseSplit)
		expense.Post("/split/{id:uint}/unsettle", routes.UnsettleExpenseSplit)
		expense.Get("/house/{id:uint}/balances", routes.GetHouseBalances)
	}

	note := app.Party("/api/note", authed...)
	{
		note.Get("/house/{id:uint}", routes.GetHouseNotes)
		note.Post("/house/{id:uint}", routes.CreateNote)
		note.Patch("/{id:uint}", routes.UpdateNote)
		note.Delete("/{id:uint}", routes.DeleteNote)
	}

	chat := app.Party("/api/chat", authed...)
	{
		chat.Get("/house/{id:uint}", routes.GetHouseChat)
		chat.Post("/house/{id:uint}", routes.SendChatMessage)
		chat.Post("/house/{id:uint}/typing", routes.SetTypingIndicator)
		chat.Get("/house/{id:uint}/typing", routes.GetTypingIndicators)
	}

	notifications := app.Party("/api/notifications", authed...)
	{
		notifications.Get("/", routes.GetNotifications)
		notifications.Patch("/{id:uint}/read", routes.MarkNotificationRead)
		notifications.Post("/read-all", routes.MarkAllNotificationsRead)
	}

	admin := app.Party("/api/admin", authed...)
	{
		admin.Get("/house/{id:uint}/stats", routes.AdminHouseStats)
		admin.Get("/house/{id:uint}/activity", routes.AdminActivity)
		admin.Get("/stats", utils.AdminOnlyMiddleware, routes.PlatformStats)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
