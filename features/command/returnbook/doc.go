// Package returnbook implements the Return Book use case.
//
// Returning closes the loan and credits the copies back onto the book in the
// same atomic section. A second return of the same loan is rejected without
// crediting anything, so availability can never drift past the total.
package returnbook
