// Package portal assembles the session layer of the My Lagos Community
// front end: a customer auth service and an admin auth service sharing one
// key-value store, one CSRF cache, one request pipeline and one idle monitor.
//
//	app, err := portal.NewApp(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer app.Close()
//
//	_ = app.Start(ctx) // restore sessions from the previous run
//
//	user, err := app.Admin().Login(ctx, auth.Credentials{Identifier: email, Password: pw})
//
//	// Forward raw input events so idle sessions are detected.
//	app.Activity().Dispatch(idle.Click)
//
// Configuration is read from the environment (see Config). STORAGE_DRIVER
// selects where tokens and activity timestamps live: memory, file (default),
// sqlite or redis.
package portal
