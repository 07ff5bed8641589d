/*
Package iso7816 implements the ISO/IEC 7816-3/-4 framing used to talk to a smart card
application: command and response APDUs, the class and instruction bytes, status words
and the transport procedures a T=0 reader may surface to the host.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

Only short length fields are produced: Lc is one byte and present only when the command
carries data, Le is one byte and present only when a response length is requested.

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - Other: Various error conditions, left to the application layer to interpret.

# Usage Example

	client := iso7816.NewClient(card) // card implements Transmitter
	trace, err := client.Send(iso7816.SelectByAID(iso7816.InterindustryClass, aid))
	if err != nil {
	    return err
	}
	if !trace.IsSuccess() {
	    return fmt.Errorf("select failed: %s", trace.Last().Response.Status.Verbose())
	}
	fmt.Printf("%X\n", trace.Data())
*/
package iso7816
