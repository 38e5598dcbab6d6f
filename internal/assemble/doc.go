// Package assemble builds the ordered TextBlock sequence for one task:
// setup blocks, module load statements, per-service injected data and
// re-escaped porting code, and the final call-execution block.
//
// Block order is the runtime dependency order by construction: modules and
// their default state load before any service call, input variables are
// defined before the porting logic that reads them, and the porting logic
// is defined before its call executes.
package assemble
