// Package taxjar is a client for the TaxJar sales tax API.
//
// A Client turns an OrderParams into a POST to {apiURL}/taxes, authenticates
// with a bearer API key and decodes the "tax" object of the response into a
// Tax. Breakdown fields that do not apply to a jurisdiction decode as zero,
// so US, international and Canadian responses share one set of types.
//
//	client := taxjar.New(os.Getenv("TAXJAR_API_KEY"))
//	tax, err := client.TaxForOrder(ctx, &taxjar.OrderParams{
//	    FromCountry: "US", FromZip: "07001", FromState: "NJ",
//	    ToCountry: "US", ToZip: "07446", ToState: "NJ",
//	    Amount:   taxjar.Float(16.50),
//	    Shipping: 1.50,
//	    LineItems: []taxjar.LineItemParams{
//	        {Quantity: 1, UnitPrice: 15.0, ProductTaxCode: "31000"},
//	    },
//	})
//
// Each TaxForOrder call is a single request. Retries, rate limiting, response
// caching and metrics belong to the transport package and are opted into
// with WithTransportOptions:
//
//	client := taxjar.New(key, taxjar.WithTransportOptions(
//	    transport.WithMaxRetries(2),
//	    transport.WithCache(10*time.Minute),
//	    transport.WithCacheCondition(transport.MethodCacheCondition(http.MethodPost)),
//	))
//
// Errors are *Error values; use errors.Is with ErrTransport, ErrAPI, ErrParse
// or ErrRequest, or the IsTransportError style helpers.
package taxjar
