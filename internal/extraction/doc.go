// Package extraction turns untrusted extraction-service output into a
// well-shaped model.CandidateRecord.
//
// Normalization is total: any payload, including nil, scalars, arrays and
// objects with wrong-typed fields, yields a record whose five collections
// are present. Legacy field names from older extraction formats are read
// as fallbacks for the current names:
//
//	diagnoses[].cidCode  <- condition
//	diagnoses[].notes    <- description
//	medications[].dosage <- dose
package extraction
