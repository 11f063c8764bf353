// Package student holds the fixed, in-memory set of student records served
// by the service. The set is built once at startup and never mutated; every
// record handed out is a copy.
package student
