// Package gocrm provides a Go client for the CFM (Conselho Federal de Medicina)
// physician search API.
//
// Every physician licensed in Brazil holds a CRM registration issued by the
// medical council of a state (UF). This library looks doctors up by state,
// registration number or name and normalizes the portal's raw rows into typed
// Doctor records.
//
// # Quick Start
//
// Look up a doctor by state and CRM:
//
//	client := gocrm.NewClient()
//	result, err := client.Search(context.Background(), gocrm.SearchCriteria{
//	    State: "RS",
//	    CRM:   gocrm.String("43327"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Doctor: %s (%s)\n", result.Doctors[0].Name, result.Doctors[0].Status)
//
// # Query Builder
//
// Chain criteria with a Query and run it:
//
//	result, err := client.Query().
//	    State("sp").
//	    Name("João Silva").
//	    Search(ctx)
//
// A Query is a plain accumulator and must not be shared between goroutines.
// The Client itself is safe for concurrent use.
//
// # Configuration
//
// Configure the client with options:
//
//	client := gocrm.NewClient(
//	    gocrm.WithLogger(zerolog.New(os.Stderr)),
//	    gocrm.WithRetry(gocrm.RetryConfig{
//	        MaxRetries:        2,
//	        InitialDelay:      200 * time.Millisecond,
//	        MaxDelay:          2 * time.Second,
//	        BackoffMultiplier: 2.0,
//	    }),
//	)
//
// # Errors
//
// All failures are reported as *Error with a Code. Validation errors are
// returned before any network call:
//
//	if gocrm.CodeOf(err) == gocrm.ErrCodeInvalidState {
//	    fmt.Println("valid states:", gocrm.ValidStates)
//	}
package gocrm
