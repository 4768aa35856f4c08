/*
	Project: Gradebook - grade entry for teachers.

	Teachers register behind the school's master code, then record the quarterly scores
	(3 tests & a final exam) of their students, with an optional photo per record.
	A record is identified by student, subject, quarter & school year: saving it again replaces it.

	Binaries:
		apps/api	- JSON API (echo), wired with dig
		apps/admin	- maintenance CLI: adduser, users, migrate, export
*/
package gradebook
